package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s := NewLocalStore(LocalConfig{IndexPath: t.TempDir(), Dimension: 3})
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestAddDocuments_PersistsAndCountsAtLeastInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}},
		{ID: "b", Content: "beta", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, s.AddDocuments(ctx, records))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, len(records))

	for _, r := range records {
		hits, err := s.Search(ctx, r.Embedding, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, r.ID, hits[0].ID)
	}
}

func TestAddDocuments_SurvivesReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	s1 := NewLocalStore(LocalConfig{IndexPath: dir, Dimension: 3})
	require.NoError(t, s1.Initialize(ctx))
	require.NoError(t, s1.AddDocuments(ctx, []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}},
	}))

	s2 := NewLocalStore(LocalConfig{IndexPath: dir, Dimension: 3})
	require.NoError(t, s2.Initialize(ctx))

	count, err := s2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := s2.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestDelete_RemovesFromSubsequentSearches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddDocuments(ctx, []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}},
		{ID: "b", Content: "beta", Embedding: []float32{0, 1, 0}},
	}))

	require.NoError(t, s.Delete(ctx, []string{"a"}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "a", h.ID)
	}

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDelete_NonExistentIDIsIgnored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}},
	}))

	require.NoError(t, s.Delete(ctx, []string{"does-not-exist"}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSearch_KClampedToCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}},
		{ID: "b", Content: "beta", Embedding: []float32{0, 1, 0}},
	}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearch_EmptyStoreReturnsNilNotError(t *testing.T) {
	s := newTestStore(t)
	hits, err := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestClear_EmptiesButKeepsConfig(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}},
	}))

	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 3, s.cfg.Dimension)
}

func TestAddDocuments_RejectsWrongDimension(t *testing.T) {
	s := newTestStore(t)
	err := s.AddDocuments(context.Background(), []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0}},
	})
	assert.Error(t, err)
}

func TestNewLocalStore_DowngradesAdvancedIndexTypes(t *testing.T) {
	s := NewLocalStore(LocalConfig{IndexPath: t.TempDir(), IndexType: HNSW})
	assert.Equal(t, FlatIP, s.cfg.IndexType)
}
