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
	"context"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// pdfBatchSize and pdfBatchWorkers implement the bounded fan-out policy:
// pages are extracted in batches of B pages, W workers per batch, one
// batch in flight at a time.
const (
	pdfBatchSize    = 5
	pdfBatchWorkers = 4
)

// numPages returns the PDF's authoritative page count, per pdf.Reader, for
// callers that need it without also extracting text.
func numPages(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string, data []byte) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", ragerr.NewExtractionError("pdf", path, "failed to open file", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", ragerr.NewExtractionError("pdf", path, "failed to stat file", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", ragerr.NewExtractionError("pdf", path, "failed to parse PDF", err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, totalPages+1) // 1-indexed

	for batchStart := 1; batchStart <= totalPages; batchStart += pdfBatchSize {
		batchEnd := batchStart + pdfBatchSize - 1
		if batchEnd > totalPages {
			batchEnd = totalPages
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pdfBatchWorkers)
		for pageNum := batchStart; pageNum <= batchEnd; pageNum++ {
			pageNum := pageNum
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				page := reader.Page(pageNum)
				if page.V.IsNull() {
					pages[pageNum] = ""
					return nil
				}
				text, err := page.GetPlainText(nil)
				if err != nil {
					pages[pageNum] = ""
					return nil
				}
				pages[pageNum] = normalizePage(text)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", ragerr.NewExtractionError("pdf", path, "page extraction cancelled", err)
		}
	}

	var nonEmpty []string
	for i := 1; i <= totalPages; i++ {
		if strings.TrimSpace(pages[i]) != "" {
			nonEmpty = append(nonEmpty, pages[i])
		}
	}
	text := strings.Join(nonEmpty, "\n\n")

	if e.OCR != nil && shouldFallbackToOCR(text) {
		ocrText, err := e.runOCR(ctx, path, totalPages)
		if err == nil && len(ocrText) > len(text) {
			return ocrText, nil
		}
	}

	return text, nil
}
