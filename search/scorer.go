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

package search

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/ledgerfind/core"
)

// Weights controls how vector and lexical scores blend in hybrid search.
type Weights struct {
	Vector float64
	Text   float64
}

// DefaultWeights favors semantic similarity with a lexical assist.
var DefaultWeights = Weights{Vector: 0.7, Text: 0.3}

// Validate checks that weights are non-negative and sum to 1 within a
// small tolerance for floating point drift.
func (w Weights) Validate() error {
	if w.Vector < 0 || w.Text < 0 {
		return fmt.Errorf("%w: got vector=%.2f text=%.2f", ErrInvalidWeights, w.Vector, w.Text)
	}
	if math.Abs(w.Vector+w.Text-1.0) > 0.01 {
		return fmt.Errorf("%w: got vector=%.2f text=%.2f", ErrInvalidWeights, w.Vector, w.Text)
	}
	return nil
}

type scoreKey struct {
	entityType core.EntityType
	entityID   core.ID
}

// CombineScores merges vector and lexical hits into one ranked result set.
// Each modality's scores are min-max normalized over its own hit list
// before weighting, so neither scale dominates the other. An item found by
// only one modality scores zero on the missing side. Ordering is combined
// score descending, vector score descending, then item ID ascending, and
// is fully deterministic for identical inputs.
func CombineScores(vectorMatches []*core.VectorMatch, textMatches []*core.TextMatch, weights Weights) ([]*core.SearchResult, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	vectorScores := make([]float64, len(vectorMatches))
	for i, match := range vectorMatches {
		vectorScores[i] = match.Similarity
	}
	textScores := make([]float64, len(textMatches))
	for i, match := range textMatches {
		textScores[i] = match.Relevance
	}
	normVector := minMaxNormalize(vectorScores)
	normText := minMaxNormalize(textScores)

	merged := make(map[scoreKey]*core.SearchResult)
	for i, match := range vectorMatches {
		key := scoreKey{match.EntityType, match.EntityId}
		merged[key] = &core.SearchResult{
			ItemId:      match.EntityId,
			ItemType:    match.EntityType,
			VectorScore: normVector[i],
		}
	}
	for i, match := range textMatches {
		key := scoreKey{match.EntityType, match.EntityId}
		if result, ok := merged[key]; ok {
			result.TextScore = normText[i]
			continue
		}
		merged[key] = &core.SearchResult{
			ItemId:    match.EntityId,
			ItemType:  match.EntityType,
			TextScore: normText[i],
		}
	}

	results := make([]*core.SearchResult, 0, len(merged))
	for _, result := range merged {
		result.CombinedScore = weights.Vector*result.VectorScore + weights.Text*result.TextScore
		results = append(results, result)
	}

	sortResults(results)
	return results, nil
}

// sortResults orders results by combined score descending, vector score
// descending, then item ID ascending.
func sortResults(results []*core.SearchResult) {
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.CombinedScore != b.CombinedScore {
			if a.CombinedScore > b.CombinedScore {
				return -1
			}
			return 1
		}
		if a.VectorScore != b.VectorScore {
			if a.VectorScore > b.VectorScore {
				return -1
			}
			return 1
		}
		if a.ItemId < b.ItemId {
			return -1
		}
		if a.ItemId > b.ItemId {
			return 1
		}
		return 0
	})
}

// minMaxNormalize rescales scores to [0,1] over the list. When every score
// is identical, positive scores normalize to 1 so a lone perfect hit is
// not erased, and all-zero lists stay zero.
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	minScore, maxScore := scores[0], scores[0]
	for _, score := range scores[1:] {
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	normalized := make([]float64, len(scores))
	if maxScore == minScore {
		for i := range scores {
			if scores[i] > 0 {
				normalized[i] = 1
			}
		}
		return normalized
	}

	spread := maxScore - minScore
	for i, score := range scores {
		normalized[i] = (score - minScore) / spread
	}
	return normalized
}
