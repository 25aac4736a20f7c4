// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/ledgerfind/core"
)

var (
	lastNDaysPattern = regexp.MustCompile(`last (\d+) days`)
	isoRangePattern  = regexp.MustCompile(`from (\d{4}-\d{2}-\d{2}) to (\d{4}-\d{2}-\d{2})`)
	isoDatePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	betweenPattern = regexp.MustCompile(`between \$?(\d+(?:\.\d+)?) and \$?(\d+(?:\.\d+)?)`)
	minPattern     = regexp.MustCompile(`(?:over|above|more than|at least) \$?(\d+(?:\.\d+)?)`)
	maxPattern     = regexp.MustCompile(`(?:under|below|less than|at most) \$?(\d+(?:\.\d+)?)`)

	// Merchants are taken from the raw text so capitalization can
	// distinguish "from Whole Foods" from "from last month".
	merchantPattern = regexp.MustCompile(`(?:from|at) ((?:[A-Z][A-Za-z0-9&'.-]*)(?: [A-Z][A-Za-z0-9&'.-]*)*)`)

	productPattern = regexp.MustCompile(`warrant(?:y|ies) (?:for|on) (?:my |the |a )?([a-z0-9][a-z0-9 -]*)`)
)

// Extract pulls structured filter values out of free query text. Relative
// date phrases resolve against now; everything else is vocabulary and
// pattern matching against vocab (nil means DefaultVocabulary). Extraction
// fills only the slots it recognizes and never errors: unrecognizable text
// just leaves the map empty.
func Extract(text string, now time.Time, vocab *Vocabulary) core.EntityMap {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	lowered := strings.ToLower(text)
	now = now.UTC()

	entities := core.EntityMap{
		DateRange:   extractDateRange(lowered, now),
		AmountRange: extractAmountRange(lowered),
		Category:    vocab.matchCategory(lowered),
		Merchant:    vocab.matchMerchant(lowered),
	}

	if entities.Merchant == "" {
		if match := merchantPattern.FindStringSubmatch(text); match != nil {
			entities.Merchant = match[1]
		}
	}
	if match := productPattern.FindStringSubmatch(lowered); match != nil {
		entities.Product = strings.TrimSpace(match[1])
	}

	return entities
}

// extractDateRange resolves a relative or explicit date phrase to an
// absolute window. Start is inclusive, end exclusive. Weeks start Monday.
func extractDateRange(lowered string, now time.Time) *core.DateRange {
	day := startOfDay(now)

	switch {
	case strings.Contains(lowered, "today"):
		return &core.DateRange{Start: day, End: day.AddDate(0, 0, 1)}

	case strings.Contains(lowered, "yesterday"):
		return &core.DateRange{Start: day.AddDate(0, 0, -1), End: day}

	case strings.Contains(lowered, "this week"):
		start := startOfWeek(now)
		return &core.DateRange{Start: start, End: start.AddDate(0, 0, 7)}

	case strings.Contains(lowered, "last week"):
		start := startOfWeek(now).AddDate(0, 0, -7)
		return &core.DateRange{Start: start, End: start.AddDate(0, 0, 7)}

	case strings.Contains(lowered, "this month"):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return &core.DateRange{Start: start, End: start.AddDate(0, 1, 0)}

	case strings.Contains(lowered, "last month"):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return &core.DateRange{Start: start, End: start.AddDate(0, 1, 0)}

	case strings.Contains(lowered, "this year"):
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return &core.DateRange{Start: start, End: start.AddDate(1, 0, 0)}

	case strings.Contains(lowered, "last year"):
		start := time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, time.UTC)
		return &core.DateRange{Start: start, End: start.AddDate(1, 0, 0)}
	}

	if match := lastNDaysPattern.FindStringSubmatch(lowered); match != nil {
		days, err := strconv.Atoi(match[1])
		if err == nil && days > 0 {
			return &core.DateRange{Start: day.AddDate(0, 0, -days), End: day.AddDate(0, 0, 1)}
		}
	}

	if match := isoRangePattern.FindStringSubmatch(lowered); match != nil {
		start, errStart := time.Parse("2006-01-02", match[1])
		end, errEnd := time.Parse("2006-01-02", match[2])
		if errStart == nil && errEnd == nil && start.Before(end) {
			return &core.DateRange{Start: start, End: end.AddDate(0, 0, 1)}
		}
	}

	if match := isoDatePattern.FindString(lowered); match != "" {
		date, err := time.Parse("2006-01-02", match)
		if err == nil {
			return &core.DateRange{Start: date, End: date.AddDate(0, 0, 1)}
		}
	}

	return nil
}

func extractAmountRange(lowered string) *core.AmountRange {
	if match := betweenPattern.FindStringSubmatch(lowered); match != nil {
		minAmount, errMin := strconv.ParseFloat(match[1], 64)
		maxAmount, errMax := strconv.ParseFloat(match[2], 64)
		if errMin == nil && errMax == nil && minAmount <= maxAmount {
			return &core.AmountRange{Min: &minAmount, Max: &maxAmount}
		}
	}

	var amountRange core.AmountRange
	if match := minPattern.FindStringSubmatch(lowered); match != nil {
		if minAmount, err := strconv.ParseFloat(match[1], 64); err == nil {
			amountRange.Min = &minAmount
		}
	}
	if match := maxPattern.FindStringSubmatch(lowered); match != nil {
		if maxAmount, err := strconv.ParseFloat(match[1], 64); err == nil {
			amountRange.Max = &maxAmount
		}
	}
	if amountRange.Min == nil && amountRange.Max == nil {
		return nil
	}
	return &amountRange
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the previous Monday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
