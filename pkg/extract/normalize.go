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

package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ragforge/ragengine/pkg/lang"
)

// normalizePage applies the four-stage PDF page normalization: NFC, null/
// replacement-char stripping, a printable/script allowlist, and intra-line
// whitespace collapsing with empty-line removal.
func normalizePage(text string) string {
	text = norm.NFC.String(text)
	text = stripNullsAndReplacement(text)
	text = filterAllowedRunes(text)
	return collapseLines(text)
}

func stripNullsAndReplacement(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == 0 || r == unicode.ReplacementChar {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func filterAllowedRunes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || unicode.IsSpace(r) || unicode.Is(lang.IndicRangeTable, r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var intraLineWhitespace = regexp.MustCompile(`[ \t]+`)

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = intraLineWhitespace.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\|\|+`),
	regexp.MustCompile(`_{3,}`),
	regexp.MustCompile(`\.{4,}`),
	regexp.MustCompile(` {5,}`),
}

// shouldFallbackToOCR applies the three OCR trigger heuristics: too few
// readable characters, too low a recognized-script fraction, or too high an
// artifact density.
func shouldFallbackToOCR(text string) bool {
	readable := countReadable(text)
	if readable < 50 {
		return true
	}

	total := 0
	recognized := 0
	for _, r := range text {
		total++
		if isRecognized(r) {
			recognized++
		}
	}
	if total > 0 && float64(recognized)/float64(total) < 0.5 {
		return true
	}

	artifacts := 0
	for _, p := range artifactPatterns {
		artifacts += len(p.FindAllStringIndex(text, -1))
	}
	if total > 0 && float64(artifacts)/float64(total) > 0.1 {
		return true
	}

	return false
}

func countReadable(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func isRecognized(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || unicode.IsDigit(r) {
		return true
	}
	if r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
		return true
	}
	return unicode.Is(lang.IndicRangeTable, r)
}
