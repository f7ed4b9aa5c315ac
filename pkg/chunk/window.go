// Copyright 2025 ragforge authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunk

import (
	"strings"

	"github.com/ragforge/ragengine/pkg/lang"
)

var _ Chunker = (*windowChunker)(nil)

// windowChunker implements a sliding window over the text that prefers to
// land on a sentence terminator, then a paragraph break, then a space,
// before falling back to a raw cut at the window edge.
type windowChunker struct {
	cfg Config
}

func (w *windowChunker) Strategy() Strategy { return Window }
func (w *windowChunker) Config() Config     { return w.cfg }

func (w *windowChunker) Split(text string) []Chunk {
	runes := []rune(text)
	n := len(runes)
	size := w.cfg.Size
	overlap := w.cfg.Overlap

	if n == 0 {
		return []Chunk{{Content: "", StartChar: 0, EndChar: 0, Language: lang.Detect("")}}
	}

	var chunks []Chunk
	start := 0

	for start < n {
		windowEnd := start + size
		var end int
		if windowEnd >= n {
			end = n
		} else {
			end = chooseBoundary(runes, start, windowEnd, size)
		}

		raw := string(runes[start:end])
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			chunks = append(chunks, Chunk{
				Content:   trimmed,
				StartChar: start,
				EndChar:   end,
				Language:  lang.Detect(trimmed),
			})
		}

		nextStart := end - overlap
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	if len(chunks) == 0 {
		return []Chunk{{Content: "", StartChar: 0, EndChar: 0, Language: lang.Detect("")}}
	}
	return chunks
}

// chooseBoundary picks an end offset in [start+size*0.5, windowEnd],
// preferring the last sentence terminator, then the last blank line within
// [start+size*0.3, windowEnd], then the last space at or after
// start+size*0.5, and finally the raw window edge.
func chooseBoundary(runes []rune, start, windowEnd, size int) int {
	minBoundary := start + int(float64(size)*0.5)
	if minBoundary > windowEnd {
		minBoundary = windowEnd
	}

	if idx := lastIndexAny(runes, minBoundary, windowEnd, ".?!"); idx >= 0 {
		return idx + 1
	}

	paraMin := start + int(float64(size)*0.3)
	if paraMin > windowEnd {
		paraMin = windowEnd
	}
	if idx := lastParagraphBreak(runes, paraMin, windowEnd); idx >= 0 {
		return idx
	}

	if idx := lastIndexAny(runes, minBoundary, windowEnd, " \t"); idx >= 0 {
		return idx + 1
	}

	return windowEnd
}

// lastIndexAny returns the rune index of the last occurrence of any rune in
// chars within runes[from:to], or -1 if none is found.
func lastIndexAny(runes []rune, from, to int, chars string) int {
	for i := to - 1; i >= from; i-- {
		for _, c := range chars {
			if runes[i] == c {
				return i
			}
		}
	}
	return -1
}

// lastParagraphBreak returns the index just after the last "\n\n" occurring
// with its first newline in [from, to), or -1 if none is found.
func lastParagraphBreak(runes []rune, from, to int) int {
	for i := to - 1; i > from; i-- {
		if i-1 >= 0 && i < len(runes) && runes[i-1] == '\n' && runes[i] == '\n' {
			return i + 1
		}
	}
	return -1
}
