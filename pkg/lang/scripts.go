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

package lang

import "unicode"

// Script identifies one of the languages this package can recognize.
type Script string

const (
	English   Script = "en"
	Devanagari Script = "hi"
	Bengali   Script = "bn"
	Oriya     Script = "or"
	Tamil     Script = "ta"
	Telugu    Script = "te"
	Kannada   Script = "kn"
	Malayalam Script = "ml"
)

// Ranges gives the codepoint window each non-Latin script occupies, per the
// Unicode blocks Devanagari/Bengali/Oriya/Tamil/Telugu/Kannada/Malayalam.
var Ranges = []struct {
	Script Script
	Table  *unicode.RangeTable
}{
	{Devanagari, rangeTable(0x0900, 0x097F)},
	{Bengali, rangeTable(0x0980, 0x09FF)},
	{Oriya, rangeTable(0x0B00, 0x0B7F)},
	{Tamil, rangeTable(0x0B80, 0x0BFF)},
	{Telugu, rangeTable(0x0C00, 0x0C7F)},
	{Kannada, rangeTable(0x0C80, 0x0CFF)},
	{Malayalam, rangeTable(0x0D00, 0x0D7F)},
}

// IndicRangeTable is the union of all seven recognized Indic script blocks
// (ASCII is not included), used by the extractor's printable-character
// filter and its recognized-character count for the OCR trigger.
var IndicRangeTable = buildUnion()

func rangeTable(lo, hi rune) *unicode.RangeTable {
	return &unicode.RangeTable{
		R16: []unicode.Range16{{Lo: uint16(lo), Hi: uint16(hi), Stride: 1}},
	}
}

func buildUnion() *unicode.RangeTable {
	var r16 []unicode.Range16
	for _, entry := range Ranges {
		r16 = append(r16, entry.Table.R16...)
	}
	return &unicode.RangeTable{R16: r16}
}

// InScript reports whether r falls within the given script's block, or, for
// English, whether it is an ASCII letter.
func InScript(r rune, s Script) bool {
	if s == English {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}
	for _, entry := range Ranges {
		if entry.Script == s {
			return unicode.Is(entry.Table, r)
		}
	}
	return false
}

// TesseractPack is the union language-pack argument ("eng+hin+...") used to
// invoke tesseract for the OCR fallback.
const TesseractPack = "eng+hin+ben+ori+tam+tel+kan+mal"
