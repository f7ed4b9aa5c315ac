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

// Package docstore defines the document registry contract consumed by the
// ingestion and query pipelines: document identity, status, and per-chunk
// bookkeeping, plus one in-memory reference implementation so those
// pipelines are independently testable without a real web/database layer.
package docstore

import (
	"context"
	"time"

	"github.com/ragforge/ragengine/pkg/lang"
)

// Status is a document's processing state.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Indexed    Status = "indexed"
	Error      Status = "error"
)

// ChunkSummary is the registry's record of one chunk belonging to a
// document: enough to reconstruct its vector-store id and offsets without
// re-reading the source text.
type ChunkSummary struct {
	ID        string      `json:"id" yaml:"id"`
	Content   string      `json:"content" yaml:"content"`
	StartChar int         `json:"startChar" yaml:"startChar"`
	EndChar   int         `json:"endChar" yaml:"endChar"`
	Language  lang.Script `json:"language" yaml:"language"`
}

// Document is the registry's unit of bookkeeping: identity, upload
// metadata, processing status, and the chunk summaries produced by the
// last successful process/reindex.
type Document struct {
	ID          string         `json:"id" yaml:"id"`
	Filename    string         `json:"filename" yaml:"filename"`
	Extension   string         `json:"extension" yaml:"extension"`
	ByteSize    int64          `json:"byteSize" yaml:"byteSize"`
	StoragePath string         `json:"storagePath" yaml:"storagePath"`
	Status      Status         `json:"status" yaml:"status"`
	UploadedAt  time.Time      `json:"uploadedAt" yaml:"uploadedAt"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty" yaml:"processedAt,omitempty"`
	Chunks      []ChunkSummary `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	ErrorInfo   map[string]any `json:"errorInfo,omitempty" yaml:"errorInfo,omitempty"`
}

// ChunkIDs returns the chunk ids owned by this document, in the order the
// registry recorded them. This is the registry-backed source of truth used
// to enumerate a document's vectors for deletion instead of reconstructing
// ids from a range over a stored count.
func (d Document) ChunkIDs() []string {
	ids := make([]string, len(d.Chunks))
	for i, c := range d.Chunks {
		ids[i] = c.ID
	}
	return ids
}

// Registry is the document bookkeeping contract the ingest and query
// pipelines consume. Implementations must serialize writes against reads
// for a single document id, but unrelated documents may be mutated
// concurrently.
type Registry interface {
	Get(ctx context.Context, id string) (Document, bool, error)
	List(ctx context.Context) ([]Document, error)
	Create(ctx context.Context, doc Document) (Document, error)
	Update(ctx context.Context, id string, fn func(*Document) error) (Document, error)
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
