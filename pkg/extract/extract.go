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

// Package extract turns a source file into normalized UTF-8 text, dispatched
// by extension, with a parallel-batch PDF path and an OCR fallback for
// low-quality PDF extractions.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// Extractor turns file bytes into normalized text.
type Extractor struct {
	OCR *OCRConfig
}

// New builds an Extractor. A nil OCRConfig disables the OCR fallback, in
// which case low-quality PDF extractions are returned as-is.
func New(ocr *OCRConfig) *Extractor {
	return &Extractor{OCR: ocr}
}

// Extract dispatches on the file extension of path and returns normalized
// UTF-8 text. data is the raw file content already read by the caller.
func (e *Extractor) Extract(ctx context.Context, path string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case "json":
		return extractJSON(data)
	case "html", "htm":
		return extractHTML(data), nil
	case "docx":
		text, err := extractDocx(path)
		if err != nil {
			return "", ragerr.NewExtractionError("docx", path, "failed to read docx", err)
		}
		return text, nil
	case "xlsx":
		text, err := extractXlsx(path)
		if err != nil {
			return "", ragerr.NewExtractionError("xlsx", path, "failed to read xlsx", err)
		}
		return text, nil
	case "pdf":
		return e.extractPDF(ctx, path, data)
	case "txt", "md", "":
		return extractVerbatim(data), nil
	default:
		return fmt.Sprintf("[unsupported binary format: %s]", ext), nil
	}
}

func extractVerbatim(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func extractJSON(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		// Not valid JSON: fall back to verbatim rather than fail the document.
		return extractVerbatim(data), nil
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return extractVerbatim(data), nil
	}
	return string(pretty), nil
}
