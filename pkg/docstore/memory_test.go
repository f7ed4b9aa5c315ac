package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry_CreateGetList(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	doc, err := r.Create(ctx, Document{ID: "doc1", Filename: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, Pending, doc.Status)

	got, ok, err := r.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "notes.txt", got.Filename)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryRegistry_CreateDuplicateFails(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	_, err := r.Create(ctx, Document{ID: "doc1"})
	require.NoError(t, err)
	_, err = r.Create(ctx, Document{ID: "doc1"})
	assert.Error(t, err)
}

func TestMemoryRegistry_UpdateAdvancesStatus(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	_, err := r.Create(ctx, Document{ID: "doc1"})
	require.NoError(t, err)

	updated, err := r.Update(ctx, "doc1", func(d *Document) error {
		d.Status = Indexed
		d.Chunks = []ChunkSummary{{ID: "doc1_chunk_0"}}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Indexed, updated.Status)
	assert.Equal(t, []string{"doc1_chunk_0"}, updated.ChunkIDs())
}

func TestMemoryRegistry_UpdateMissingDocumentFails(t *testing.T) {
	r := NewMemoryRegistry()
	_, err := r.Update(context.Background(), "missing", func(d *Document) error { return nil })
	assert.Error(t, err)
}

func TestMemoryRegistry_DeleteAndClearAll(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	_, _ = r.Create(ctx, Document{ID: "doc1"})
	_, _ = r.Create(ctx, Document{ID: "doc2"})

	require.NoError(t, r.Delete(ctx, "doc1"))
	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, r.ClearAll(ctx))
	count, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDocument_ChunkIDsPreservesOrder(t *testing.T) {
	d := Document{Chunks: []ChunkSummary{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	assert.Equal(t, []string{"a", "b", "c"}, d.ChunkIDs())
}
