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

var _ Chunker = (*lineChunker)(nil)

// lineChunker groups whole lines until the size budget would be exceeded,
// carrying the trailing lines of one chunk into the next as overlap. It
// never splits a line, trading exact offset precision for readability on
// already-line-oriented text.
type lineChunker struct {
	cfg Config
}

func (l *lineChunker) Strategy() Strategy { return Line }
func (l *lineChunker) Config() Config     { return l.cfg }

func (l *lineChunker) Split(text string) []Chunk {
	if text == "" {
		return []Chunk{{Content: "", StartChar: 0, EndChar: 0, Language: lang.Detect("")}}
	}

	lines := strings.Split(text, "\n")
	// offsets[i] is the rune index where lines[i] begins in text.
	offsets := make([]int, len(lines))
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len([]rune(line)) + 1
	}

	var chunks []Chunk
	i := 0
	for i < len(lines) {
		start := offsets[i]
		size := 0
		j := i
		for j < len(lines) {
			lineLen := len([]rune(lines[j])) + 1
			if size > 0 && size+lineLen > l.cfg.Size {
				break
			}
			size += lineLen
			j++
		}
		if j == i {
			j = i + 1 // always make progress even if a single line exceeds size
		}

		end := start + size
		if j >= len(lines) {
			end = len([]rune(text))
		}
		content := strings.TrimSpace(strings.Join(lines[i:j], "\n"))
		if content != "" {
			chunks = append(chunks, Chunk{
				Content:   content,
				StartChar: start,
				EndChar:   end,
				Language:  lang.Detect(content),
			})
		}

		// Carry trailing lines forward as overlap, bounded by cfg.Overlap chars.
		overlapLines := 0
		overlapSize := 0
		for k := j - 1; k > i && overlapSize < l.cfg.Overlap; k-- {
			overlapSize += len([]rune(lines[k])) + 1
			overlapLines++
		}
		next := j - overlapLines
		if next <= i {
			next = j
		}
		i = next
	}

	if len(chunks) == 0 {
		return []Chunk{{Content: "", StartChar: 0, EndChar: 0, Language: lang.Detect("")}}
	}
	return chunks
}
