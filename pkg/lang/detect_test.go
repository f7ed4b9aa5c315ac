package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_English(t *testing.T) {
	assert.Equal(t, English, Detect("The quick brown fox jumps over the lazy dog."))
}

func TestDetect_Empty(t *testing.T) {
	assert.Equal(t, English, Detect(""))
}

func TestDetect_Devanagari(t *testing.T) {
	// "यह एक परीक्षण वाक्य है" - Hindi for "this is a test sentence"
	got := Detect("यह एक परीक्षण वाक्य है यह एक परीक्षण वाक्य है")
	assert.Equal(t, Devanagari, got)
}

func TestDetect_MixedBelowThresholdFallsBackToEnglish(t *testing.T) {
	// Mostly digits/punctuation, tiny trace of Devanagari: neither script clears 0.3.
	got := Detect("1234567890 !@#$%^&*() य")
	assert.Equal(t, English, got)
}

func TestDistribution_ReturnsPrimaryAndFullBreakdown(t *testing.T) {
	primary, dist := Distribution("यह एक परीक्षण वाक्य है यह एक परीक्षण वाक्य है")
	assert.Equal(t, Devanagari, primary)
	assert.Greater(t, dist[Devanagari], 0.3)
	assert.Contains(t, dist, English)
}

func TestDistribution_Empty(t *testing.T) {
	primary, dist := Distribution("")
	assert.Equal(t, English, primary)
	assert.Empty(t, dist)
}
