package chunk

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowChunker_SentenceBoundarySeedScenario(t *testing.T) {
	c, err := New(Config{Strategy: Window, Size: 20, Overlap: 5})
	require.NoError(t, err)

	text := "The quick brown fox. Jumps over lazy dog. End."
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "The quick brown fox.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 20, chunks[0].EndChar)
}

func TestWindowChunker_EmptyInputYieldsOneEmptyChunk(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	chunks := c.Split("")
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Content)
}

func TestWindowChunker_OffsetsAreWithinBoundsAndContentMatchesSlice(t *testing.T) {
	c, err := New(Config{Strategy: Window, Size: 50, Overlap: 10})
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	runes := []rune(text)
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.EndChar-ch.StartChar, 50)
		assert.True(t, ch.StartChar >= 0 && ch.EndChar <= len(runes))
		assert.Equal(t, strings.TrimSpace(string(runes[ch.StartChar:ch.EndChar])), ch.Content)
	}
}

func TestWindowChunker_TerminatesOnDegenerateInput(t *testing.T) {
	c, err := New(Config{Strategy: Window, Size: 10, Overlap: 9})
	require.NoError(t, err)

	text := strings.Repeat("x", 1000)
	done := make(chan []Chunk, 1)
	go func() { done <- c.Split(text) }()
	select {
	case chunks := <-done:
		assert.NotEmpty(t, chunks)
	case <-time.After(2 * time.Second):
		t.Fatal("chunker did not terminate")
	}
}

func TestConfig_ValidateRejectsOverlapGESize(t *testing.T) {
	_, err := New(Config{Strategy: Window, Size: 10, Overlap: 10})
	assert.Error(t, err)
}

func TestLineChunker_NeverSplitsALine(t *testing.T) {
	c, err := New(Config{Strategy: Line, Size: 30, Overlap: 5})
	require.NoError(t, err)

	text := "line one\nline two is longer\nline three\nline four is also long"
	chunks := c.Split(text)
	for _, ch := range chunks {
		for _, line := range strings.Split(ch.Content, "\n") {
			assert.True(t, strings.Contains(text, line))
		}
	}
}
