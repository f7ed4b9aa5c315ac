package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PlainTextVerbatim(t *testing.T) {
	e := New(nil)
	text, err := e.Extract(context.Background(), "notes.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtract_JSONPrettyPrinted(t *testing.T) {
	e := New(nil)
	text, err := e.Extract(context.Background(), "data.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Contains(t, text, "\"a\": 1")
}

func TestExtract_HTMLStripsTags(t *testing.T) {
	e := New(nil)
	text, err := e.Extract(context.Background(), "page.html", []byte("<html><body><script>var x=1;</script><p>Hello <b>World</b></p></body></html>"))
	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
	assert.NotContains(t, text, "var x=1")
}

func TestExtract_UnknownBinaryFormatReturnsPlaceholder(t *testing.T) {
	e := New(nil)
	text, err := e.Extract(context.Background(), "archive.zip", []byte{0x50, 0x4B})
	require.NoError(t, err)
	assert.Contains(t, text, "unsupported binary format")
}

func TestNormalizePage_StripsNullsAndCollapsesWhitespace(t *testing.T) {
	in := "Hello\x00World   \n\n   \nSecond    Line"
	got := normalizePage(in)
	assert.NotContains(t, got, "\x00")
	assert.Contains(t, got, "Second Line")
}

func TestShouldFallbackToOCR_TooFewReadableChars(t *testing.T) {
	assert.True(t, shouldFallbackToOCR("##$$ @@"))
}

func TestShouldFallbackToOCR_ArtifactDensity(t *testing.T) {
	text := "word " + stringsRepeat("|||", 20) + " more text here to pad length beyond fifty chars total easily"
	assert.True(t, shouldFallbackToOCR(text))
}

func TestShouldFallbackToOCR_GoodTextDoesNotTrigger(t *testing.T) {
	text := "This is a perfectly readable sentence with plenty of normal English words in it."
	assert.False(t, shouldFallbackToOCR(text))
}

func stringsRepeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
