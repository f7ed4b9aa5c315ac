package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/embed"
	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string) (embed.Result, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = make([]float32, f.dim)
	}
	return embed.Result{Vectors: vecs}, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) TestConnection(ctx context.Context) bool { return true }

type fakeVectorStore struct {
	records map[string]vectorstore.Record
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{records: make(map[string]vectorstore.Record)}
}

func (f *fakeVectorStore) Initialize(ctx context.Context) error { return nil }

func (f *fakeVectorStore) AddDocuments(ctx context.Context, records []vectorstore.Record) error {
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeVectorStore) Clear(ctx context.Context) error {
	f.records = make(map[string]vectorstore.Record)
	return nil
}

func (f *fakeVectorStore) Count(ctx context.Context) (int, error) { return len(f.records), nil }

func (f *fakeVectorStore) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Hit, error) {
	return nil, nil
}

func (f *fakeVectorStore) TestConnection(ctx context.Context) bool { return true }

func newTestPipeline() (*Pipeline, *fakeVectorStore, *docstore.MemoryRegistry) {
	vs := newFakeVectorStore()
	reg := docstore.NewMemoryRegistry()
	p := New(extract.New(nil), &fakeEmbedder{dim: 3}, vs, reg)
	return p, vs, reg
}

func TestProcess_ProducesChunksAndIndexesIndexed(t *testing.T) {
	p, vs, reg := newTestPipeline()
	ctx := context.Background()

	doc, err := reg.Create(ctx, docstore.Document{ID: "doc1", Filename: "notes.txt", StoragePath: "notes.txt"})
	require.NoError(t, err)

	text := "The quick brown fox. Jumps over lazy dog. End."
	records, err := p.Process(ctx, doc, []byte(text), Options{ChunkSize: 20, ChunkOverlap: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	assert.Len(t, vs.records, len(records))

	updated, ok, err := reg.Get(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, docstore.Indexed, updated.Status)
	assert.Len(t, updated.Chunks, len(records))
	assert.NotNil(t, updated.ProcessedAt)
}

func TestProcess_EmptyTextYieldsZeroChunksAndIndexed(t *testing.T) {
	p, vs, reg := newTestPipeline()
	ctx := context.Background()

	doc, err := reg.Create(ctx, docstore.Document{ID: "doc2", Filename: "empty.txt", StoragePath: "empty.txt"})
	require.NoError(t, err)

	records, err := p.Process(ctx, doc, []byte(""), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, vs.records)

	updated, _, err := reg.Get(ctx, "doc2")
	require.NoError(t, err)
	assert.Equal(t, docstore.Indexed, updated.Status)
}

func TestDeleteDocumentChunks_UsesRegistryChunkIDs(t *testing.T) {
	p, vs, reg := newTestPipeline()
	ctx := context.Background()

	doc, err := reg.Create(ctx, docstore.Document{ID: "doc3", Filename: "a.txt", StoragePath: "a.txt"})
	require.NoError(t, err)
	_, err = p.Process(ctx, doc, []byte("some short text here for chunking purposes"), Options{ChunkSize: 20, ChunkOverlap: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, vs.records)

	require.NoError(t, p.DeleteDocumentChunks(ctx, "doc3"))
	assert.Empty(t, vs.records)
}

func TestClearAllDocuments_EmptiesRegistryAndIndex(t *testing.T) {
	p, vs, reg := newTestPipeline()
	ctx := context.Background()
	doc, err := reg.Create(ctx, docstore.Document{ID: "doc4", Filename: "a.txt", StoragePath: "a.txt"})
	require.NoError(t, err)
	_, err = p.Process(ctx, doc, []byte("some text"), DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, p.ClearAllDocuments(ctx))
	assert.Empty(t, vs.records)
	count, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

type fakeSource struct{ data map[string][]byte }

func (f fakeSource) Read(ctx context.Context, doc docstore.Document) ([]byte, error) {
	return f.data[doc.ID], nil
}

func TestProcessFilesSequentially_ReportsProcessedAndFailed(t *testing.T) {
	p, _, reg := newTestPipeline()
	ctx := context.Background()

	doc1, err := reg.Create(ctx, docstore.Document{ID: "ok1", Filename: "ok1.txt", StoragePath: "ok1.txt"})
	require.NoError(t, err)
	doc2, err := reg.Create(ctx, docstore.Document{ID: "ok2", Filename: "ok2.txt", StoragePath: "ok2.txt"})
	require.NoError(t, err)

	src := fakeSource{data: map[string][]byte{"ok1": []byte("some text"), "ok2": []byte("more text")}}

	var progressCalls int
	result := p.ProcessFilesSequentially(ctx, src, []docstore.Document{doc1, doc2}, DefaultOptions(), func(current, total int, filename string) {
		progressCalls++
	})

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, progressCalls)
}
