package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragforge/ragengine/pkg/vectorstore"
)

func TestFilterByScore_KeepsRankOrderAboveThreshold(t *testing.T) {
	hits := []vectorstore.Hit{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.4},
		{ID: "c", Score: 0.5},
	}
	filtered := filterByScore(hits, 0.5)
	assert.Equal(t, []string{"a", "c"}, idsOf(filtered))
}

func TestAssembleContext_StopsWithinWindow(t *testing.T) {
	hits := []vectorstore.Hit{
		{ID: "a", Content: strings.Repeat("x", 50)},
		{ID: "b", Content: strings.Repeat("y", 50)},
	}
	blocks := assembleContext(hits, 60)
	assert.Len(t, blocks, 1)
}

func TestAssembleContext_TruncatesWithEllipsisWhenBudgetAllows(t *testing.T) {
	hits := []vectorstore.Hit{
		{ID: "a", Content: strings.Repeat("x", 150)},
	}
	blocks := assembleContext(hits, 120)
	assert.Len(t, blocks, 1)
	assert.True(t, strings.HasSuffix(blocks[0], "..."))
}

func TestAssembleContext_SkipsTailWhenRemainingBudgetTooSmall(t *testing.T) {
	hits := []vectorstore.Hit{
		{ID: "a", Content: strings.Repeat("x", 99)},
		{ID: "b", Content: strings.Repeat("y", 50)},
	}
	blocks := assembleContext(hits, 100)
	assert.Len(t, blocks, 1)
}

func idsOf(hits []vectorstore.Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}
