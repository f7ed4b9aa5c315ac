package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragengine/pkg/embed"
	"github.com/ragforge/ragengine/pkg/llm"
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
	hits []vectorstore.Hit
}

func (f *fakeVectorStore) Initialize(ctx context.Context) error { return nil }
func (f *fakeVectorStore) AddDocuments(ctx context.Context, records []vectorstore.Record) error {
	return nil
}
func (f *fakeVectorStore) Delete(ctx context.Context, ids []string) error { return nil }
func (f *fakeVectorStore) Clear(ctx context.Context) error                { return nil }
func (f *fakeVectorStore) Count(ctx context.Context) (int, error)         { return len(f.hits), nil }
func (f *fakeVectorStore) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Hit, error) {
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}
func (f *fakeVectorStore) TestConnection(ctx context.Context) bool { return true }

type fakeLLM struct {
	reply  string
	frames []llm.StreamFrame
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, contextBlocks []string) (llm.Result, error) {
	return llm.Result{Content: f.reply}, nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, messages []llm.Message, contextBlocks []string) (<-chan llm.StreamFrame, error) {
	out := make(chan llm.StreamFrame, len(f.frames))
	for _, fr := range f.frames {
		out <- fr
	}
	close(out)
	return out, nil
}

func (f *fakeLLM) TestConnection(ctx context.Context) bool { return true }

func TestQuery_FiltersByScoreAndReturnsSources(t *testing.T) {
	vs := &fakeVectorStore{hits: []vectorstore.Hit{
		{ID: "a", Content: "brown fox content", Score: 0.9},
		{ID: "b", Content: "unrelated", Score: 0.2},
	}}
	p := New(&fakeEmbedder{dim: 3}, vs, &fakeLLM{reply: "here is your answer"})

	result, err := p.Query(context.Background(), "brown fox", nil)
	require.NoError(t, err)
	assert.Equal(t, "here is your answer", result.Content)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "a", result.Sources[0].ID)
}

func TestQuery_EmptyHitsStillAnswers(t *testing.T) {
	vs := &fakeVectorStore{}
	p := New(&fakeEmbedder{dim: 3}, vs, &fakeLLM{reply: "no context answer"})

	result, err := p.Query(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "no context answer", result.Content)
	assert.Empty(t, result.Sources)
}

func TestQueryStream_EmitsSourcesThenContentThenDone(t *testing.T) {
	vs := &fakeVectorStore{hits: []vectorstore.Hit{{ID: "a", Content: "match", Score: 0.9}}}
	p := New(&fakeEmbedder{dim: 3}, vs, &fakeLLM{frames: []llm.StreamFrame{
		{Content: "hel"},
		{Content: "lo"},
		{Done: true, Usage: llm.Usage{TotalTokens: 7}},
	}})

	frames, err := p.QueryStream(context.Background(), "q", nil)
	require.NoError(t, err)

	var collected []Frame
	for f := range frames {
		collected = append(collected, f)
	}

	require.True(t, len(collected) >= 2)
	assert.Equal(t, FrameSources, collected[0].Type)
	assert.Equal(t, FrameDone, collected[len(collected)-1].Type)
	for _, f := range collected[1 : len(collected)-1] {
		assert.Equal(t, FrameContent, f.Type)
	}
}

func TestQueryStream_UpstreamErrorEmitsErrorFrame(t *testing.T) {
	vs := &fakeVectorStore{}
	p := New(&fakeEmbedder{dim: 3}, vs, &fakeLLM{frames: []llm.StreamFrame{
		{Err: assertErr{}},
	}})

	frames, err := p.QueryStream(context.Background(), "q", nil)
	require.NoError(t, err)

	var last Frame
	for f := range frames {
		last = f
	}
	assert.Equal(t, FrameError, last.Type)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
