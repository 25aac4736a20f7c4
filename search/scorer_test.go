package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ledgerfind/core"
)

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, Weights{Vector: 0.7, Text: 0.3}.Validate())
	assert.NoError(t, Weights{Vector: 1.0, Text: 0.0}.Validate())
	assert.NoError(t, Weights{Vector: 0.0, Text: 1.0}.Validate())
	// Tolerance covers floating point drift.
	assert.NoError(t, Weights{Vector: 0.705, Text: 0.3}.Validate())
}

func TestWeightsValidateRejectsBadSums(t *testing.T) {
	err := Weights{Vector: 0.6, Text: 0.3}.Validate()
	assert.ErrorIs(t, err, ErrInvalidWeights)

	err = Weights{Vector: 0.8, Text: 0.3}.Validate()
	assert.ErrorIs(t, err, ErrInvalidWeights)

	err = Weights{Vector: 1.2, Text: -0.2}.Validate()
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestCombineScoresMergesModalities(t *testing.T) {
	vectorMatches := []*core.VectorMatch{
		{EntityType: core.EntityTypeReceipt, EntityId: 1, Similarity: 0.9},
		{EntityType: core.EntityTypeReceipt, EntityId: 2, Similarity: 0.5},
	}
	textMatches := []*core.TextMatch{
		{EntityType: core.EntityTypeReceipt, EntityId: 2, Relevance: 1.0},
		{EntityType: core.EntityTypeReceipt, EntityId: 3, Relevance: 0.5},
	}

	results, err := CombineScores(vectorMatches, textMatches, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// After min-max normalization: item 1 vector=1 text=0, item 2
	// vector=0 text=1, item 3 vector=0 text=0.
	scores := make(map[core.ID]*core.SearchResult)
	for _, result := range results {
		scores[result.ItemId] = result
	}
	assert.InDelta(t, 0.7, scores[1].CombinedScore, 1e-9)
	assert.InDelta(t, 0.3, scores[2].CombinedScore, 1e-9)
	assert.InDelta(t, 0.0, scores[3].CombinedScore, 1e-9)

	assert.Equal(t, core.ID(1), results[0].ItemId)
	assert.Equal(t, core.ID(2), results[1].ItemId)
	assert.Equal(t, core.ID(3), results[2].ItemId)
}

func TestCombineScoresSameItemBothModalities(t *testing.T) {
	vectorMatches := []*core.VectorMatch{
		{EntityType: core.EntityTypeReceipt, EntityId: 7, Similarity: 0.8},
		{EntityType: core.EntityTypeReceipt, EntityId: 8, Similarity: 0.4},
	}
	textMatches := []*core.TextMatch{
		{EntityType: core.EntityTypeReceipt, EntityId: 7, Relevance: 0.6},
		{EntityType: core.EntityTypeReceipt, EntityId: 8, Relevance: 0.2},
	}

	results, err := CombineScores(vectorMatches, textMatches, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Item 7 tops both modalities so it normalizes to 1.0 on each.
	assert.Equal(t, core.ID(7), results[0].ItemId)
	assert.InDelta(t, 1.0, results[0].CombinedScore, 1e-9)
	assert.Equal(t, core.ID(8), results[1].ItemId)
	assert.InDelta(t, 0.0, results[1].CombinedScore, 1e-9)
}

func TestCombineScoresDeterministicTieBreak(t *testing.T) {
	// Identical similarities normalize to 1.0 each; ordering must fall
	// back to item ID ascending.
	vectorMatches := []*core.VectorMatch{
		{EntityType: core.EntityTypeReceipt, EntityId: 30, Similarity: 0.9},
		{EntityType: core.EntityTypeReceipt, EntityId: 10, Similarity: 0.9},
		{EntityType: core.EntityTypeReceipt, EntityId: 20, Similarity: 0.9},
	}

	results, err := CombineScores(vectorMatches, nil, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, core.ID(10), results[0].ItemId)
	assert.Equal(t, core.ID(20), results[1].ItemId)
	assert.Equal(t, core.ID(30), results[2].ItemId)
}

func TestCombineScoresReceiptAndWarrantyIDsDoNotCollide(t *testing.T) {
	vectorMatches := []*core.VectorMatch{
		{EntityType: core.EntityTypeReceipt, EntityId: 5, Similarity: 0.9},
		{EntityType: core.EntityTypeWarranty, EntityId: 5, Similarity: 0.6},
	}

	results, err := CombineScores(vectorMatches, nil, DefaultWeights)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCombineScoresRejectsInvalidWeights(t *testing.T) {
	_, err := CombineScores(nil, nil, Weights{Vector: 0.5, Text: 0.4})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestCombineScoresEmptyInputs(t *testing.T) {
	results, err := CombineScores(nil, nil, DefaultWeights)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMinMaxNormalizeEqualScores(t *testing.T) {
	assert.Equal(t, []float64{1, 1}, minMaxNormalize([]float64{0.4, 0.4}))
	assert.Equal(t, []float64{0, 0}, minMaxNormalize([]float64{0, 0}))
	assert.Nil(t, minMaxNormalize(nil))
}
