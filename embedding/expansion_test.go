package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains []string
	}{
		{
			name:     "grocery trigger",
			query:    "grocery receipts from March",
			contains: []string{"grocery receipts from March", "supermarket"},
		},
		{
			name:     "warranty trigger",
			query:    "warranty for my laptop",
			contains: []string{"warranty for my laptop", "coverage"},
		},
		{
			name:     "case insensitive",
			query:    "Coffee purchases",
			contains: []string{"Coffee purchases", "espresso"},
		},
		{
			name:     "trailing punctuation",
			query:    "how much on gas?",
			contains: []string{"fuel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expanded := ExpandQuery(tt.query)
			for _, want := range tt.contains {
				assert.Contains(t, expanded, want)
			}
		})
	}
}

func TestExpandQueryNoTrigger(t *testing.T) {
	query := "random purchases last week"
	assert.Equal(t, query, ExpandQuery(query))
}

func TestExpandQueryPreservesOriginal(t *testing.T) {
	query := "Grocery and Gas spending"
	expanded := ExpandQuery(query)
	assert.True(t, strings.HasPrefix(expanded, query))
}

func TestExpandQueryDeterministicOrder(t *testing.T) {
	query := "gas and grocery receipts"
	first := ExpandQuery(query)
	second := ExpandQuery(query)
	assert.Equal(t, first, second)

	// Expansion order follows the table, not word order in the query
	groceryIdx := strings.Index(first, "supermarket")
	gasIdx := strings.Index(first, "fuel")
	assert.True(t, groceryIdx < gasIdx)
}
