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

package ingest

import (
	"context"
	"log/slog"

	"github.com/ragforge/ragengine/pkg/docstore"
)

// ProgressFunc is invoked after each document in a batch finishes, whether
// it succeeded or failed.
type ProgressFunc func(current, total int, filename string)

// BatchResult reports how many documents in a batch were indexed versus
// failed. Per-document failures do not abort the batch.
type BatchResult struct {
	Processed int
	Failed    int
}

// ProcessFilesSequentially iterates documents one at a time to cap memory,
// invoking Process for each. Intra-document parallelism (embed/upsert fan-
// out) still applies; only the document loop itself is serialized.
func (p *Pipeline) ProcessFilesSequentially(ctx context.Context, src Source, documents []docstore.Document, opts Options, onProgress ProgressFunc) BatchResult {
	var result BatchResult
	total := len(documents)

	for i, doc := range documents {
		data, err := src.Read(ctx, doc)
		if err != nil {
			slog.Warn("ingest: failed to read document for batch processing", "documentId", doc.ID, "error", err)
			result.Failed++
			if onProgress != nil {
				onProgress(i+1, total, doc.Filename)
			}
			continue
		}

		if _, err := p.Process(ctx, doc, data, opts); err != nil {
			slog.Warn("ingest: document processing failed", "documentId", doc.ID, "error", err)
			result.Failed++
		} else {
			result.Processed++
		}

		if onProgress != nil {
			onProgress(i+1, total, doc.Filename)
		}
	}

	return result
}
