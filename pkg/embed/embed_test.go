package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchAndPace_PartitionsIntoSubBatchesOf20(t *testing.T) {
	texts := make([]string, 45)
	for i := range texts {
		texts[i] = "text"
	}

	var batchSizes []int
	result, err := batchAndPace(context.Background(), texts, "fake-model", func(ctx context.Context, batch []string) ([][]float32, Usage, error) {
		batchSizes = append(batchSizes, len(batch))
		vecs := make([][]float32, len(batch))
		for i := range vecs {
			vecs[i] = []float32{1, 2, 3}
		}
		return vecs, Usage{PromptTokens: len(batch)}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{20, 20, 5}, batchSizes)
	assert.Len(t, result.Vectors, 45)
	assert.Equal(t, 45, result.Usage.PromptTokens)
}

func TestBatchAndPace_EmptyInput(t *testing.T) {
	result, err := batchAndPace(context.Background(), nil, "m", func(ctx context.Context, batch []string) ([][]float32, Usage, error) {
		t.Fatal("should not be called for empty input")
		return nil, Usage{}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, result.Vectors)
}

func TestConfig_ValidateRequiresAPIKeyForOpenAI(t *testing.T) {
	err := Config{Type: OpenAI}.Validate()
	assert.Error(t, err)
}
