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
	"strings"

	"github.com/poiesic/ledgerfind/core"
)

// intentRule maps trigger phrases to an intent. Rules are evaluated in
// order and the first match wins, so the more specific intents come first:
// "find duplicate receipts" must classify as a duplicate check even though
// "find" and "receipts" would also satisfy the search rule.
type intentRule struct {
	intent   core.Intent
	triggers []string
}

var intentRules = []intentRule{
	{
		intent: core.IntentDuplicateCheck,
		triggers: []string{
			"duplicate", "duplicates", "charged twice", "double charge",
			"same purchase twice", "billed twice",
		},
	},
	{
		intent: core.IntentWarrantyLookup,
		triggers: []string{
			"warranty", "warranties", "guarantee", "still covered",
			"coverage", "protection plan", "expiring", "expires",
		},
	},
	{
		intent: core.IntentSpendingSummary,
		triggers: []string{
			"total spending", "total spent", "how much did i spend",
			"how much have i spent", "how much i spent", "spending summary",
			"sum of my", "overall spending", "spend in total",
		},
	},
	{
		intent: core.IntentAnalytics,
		triggers: []string{
			"trend", "trends", "pattern", "patterns", "breakdown",
			"compare", "average", "insight", "insights", "anomaly",
			"unusual", "top merchants", "by category",
		},
	},
	{
		intent: core.IntentSearch,
		triggers: []string{
			"find", "show", "search", "look for", "list", "where",
			"receipt", "receipts", "purchase", "purchases", "bought",
			"paid for",
		},
	},
}

// Classify assigns an intent to free query text. Matching is
// case-insensitive substring containment against an ordered rule table;
// text that triggers no rule is IntentUnknown.
func Classify(text string) core.Intent {
	lowered := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lowered, trigger) {
				return rule.intent
			}
		}
	}
	return core.IntentUnknown
}
