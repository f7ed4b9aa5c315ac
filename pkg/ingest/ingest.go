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

// Package ingest orchestrates the per-document processing pipeline
// (extract -> chunk -> embed -> index) and the sequential multi-document
// batch wrapper atop it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ragforge/ragengine/pkg/chunk"
	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/embed"
	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/lang"
	"github.com/ragforge/ragengine/pkg/metrics"
	"github.com/ragforge/ragengine/pkg/ragerr"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

// embedBatchSize and upsertBatchSize implement the document processor's
// bounded fan-out policy: embedding sub-batches of 20 chunks and upsert
// batches of 50 records, each fanned out concurrently.
const (
	embedBatchSize  = 20
	upsertBatchSize = 50
)

// Options controls one process() call. Defaults differ slightly from the
// chunker's own defaults (size 800) because the document processor's
// contract specifies its own default window.
type Options struct {
	ChunkSize       int
	ChunkOverlap    int
	ExtractMetadata bool
}

// DefaultOptions matches the document processor's documented defaults.
func DefaultOptions() Options {
	return Options{ChunkSize: 1000, ChunkOverlap: 100, ExtractMetadata: true}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.ChunkOverlap < 0 {
		o.ChunkOverlap = d.ChunkOverlap
	}
}

// ProcessedChunk is one chunk's full pipeline output: its id, content, the
// embedding vector, and denormalized metadata for the vector store record.
type ProcessedChunk struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
	StartChar int
	EndChar   int
	Language  lang.Script
}

// Pipeline wires the C1/C3/C4/C5 components and the registry together for
// document processing. It holds no per-document state. Owner and Metrics
// are optional: Owner labels the metrics this pipeline reports, Metrics may
// be left nil to disable reporting entirely.
type Pipeline struct {
	Extractor *extract.Extractor
	Embedder  embed.Provider
	VectorDB  vectorstore.Provider
	Registry  docstore.Registry
	Owner     string
	Metrics   *metrics.Metrics
}

func New(extractor *extract.Extractor, embedder embed.Provider, vectorDB vectorstore.Provider, registry docstore.Registry) *Pipeline {
	return &Pipeline{Extractor: extractor, Embedder: embedder, VectorDB: vectorDB, Registry: registry}
}

// Process extracts, chunks, embeds, and indexes one document's content,
// writing status transitions to the registry as it goes. data is the raw
// file bytes already read by the caller. Process returns only after every
// produced vector has been durably stored.
func (p *Pipeline) Process(ctx context.Context, doc docstore.Document, data []byte, opts Options) ([]ProcessedChunk, error) {
	opts.setDefaults()
	start := time.Now()

	if _, err := p.Registry.Update(ctx, doc.ID, func(d *docstore.Document) error {
		d.Status = docstore.Processing
		return nil
	}); err != nil {
		return nil, ragerr.NewProcessingError(doc.ID, "registry", "failed to mark document processing", err)
	}

	records, err := p.process(ctx, doc, data, opts)
	if err != nil {
		_, _ = p.Registry.Update(ctx, doc.ID, func(d *docstore.Document) error {
			d.Status = docstore.Error
			d.ErrorInfo = map[string]any{"message": err.Error()}
			return nil
		})
		p.Metrics.DocumentErrored(p.Owner, stageOf(err))
		return nil, err
	}

	summaries := make([]docstore.ChunkSummary, len(records))
	for i, r := range records {
		summaries[i] = docstore.ChunkSummary{
			ID:        r.ID,
			Content:   r.Content,
			StartChar: r.StartChar,
			EndChar:   r.EndChar,
			Language:  r.Language,
		}
	}
	now := time.Now()
	if _, err := p.Registry.Update(ctx, doc.ID, func(d *docstore.Document) error {
		d.Status = docstore.Indexed
		d.Chunks = summaries
		d.ProcessedAt = &now
		return nil
	}); err != nil {
		return nil, ragerr.NewProcessingError(doc.ID, "registry", "failed to mark document indexed", err)
	}

	p.Metrics.DocumentIndexed(p.Owner)
	p.Metrics.ObserveIndexDuration(p.Owner, time.Since(start).Seconds())
	return records, nil
}

// stageOf extracts the pipeline stage a ProcessingError failed at, for
// metrics labeling; unrecognized error shapes are labeled "unknown".
func stageOf(err error) string {
	var pe *ragerr.ProcessingError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return "unknown"
}

func (p *Pipeline) process(ctx context.Context, doc docstore.Document, data []byte, opts Options) ([]ProcessedChunk, error) {
	text, err := p.Extractor.Extract(ctx, doc.StoragePath, data)
	if err != nil {
		return nil, ragerr.NewProcessingError(doc.ID, "extract", "text extraction failed", err)
	}

	chunker, err := chunk.New(chunk.Config{Strategy: chunk.Window, Size: opts.ChunkSize, Overlap: opts.ChunkOverlap})
	if err != nil {
		return nil, ragerr.NewProcessingError(doc.ID, "chunk", "failed to build chunker", err)
	}
	chunks := nonEmptyChunks(chunker.Split(text))
	if len(chunks) == 0 {
		return nil, nil
	}

	records := make([]ProcessedChunk, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for batchStart := 0; batchStart < len(chunks); batchStart += embedBatchSize {
		batchStart := batchStart
		batchEnd := batchStart + embedBatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		g.Go(func() error {
			batch := chunks[batchStart:batchEnd]
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}
			result, err := p.Embedder.EmbedMany(gctx, texts)
			if err != nil {
				p.Metrics.EmbedCall(result.Model, "error", 0)
				return ragerr.NewProcessingError(doc.ID, "embed", "embedding batch failed", err)
			}
			p.Metrics.EmbedCall(result.Model, "ok", result.Usage.TotalTokens)
			for i, c := range batch {
				idx := batchStart + i
				records[idx] = ProcessedChunk{
					ID:        fmt.Sprintf("%s_chunk_%d", doc.ID, idx),
					Content:   c.Content,
					Embedding: result.Vectors[i],
					StartChar: c.StartChar,
					EndChar:   c.EndChar,
					Language:  c.Language,
					Metadata: map[string]string{
						"documentId": doc.ID,
						"filename":   doc.Filename,
						"chunkIndex": fmt.Sprintf("%d", idx),
						"startChar":  fmt.Sprintf("%d", c.StartChar),
						"endChar":    fmt.Sprintf("%d", c.EndChar),
					},
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := p.upsert(ctx, records); err != nil {
		return nil, ragerr.NewProcessingError(doc.ID, "upsert", "vector store upsert failed", err)
	}

	return records, nil
}

func (p *Pipeline) upsert(ctx context.Context, records []ProcessedChunk) error {
	g, gctx := errgroup.WithContext(ctx)
	for batchStart := 0; batchStart < len(records); batchStart += upsertBatchSize {
		batchStart := batchStart
		batchEnd := batchStart + upsertBatchSize
		if batchEnd > len(records) {
			batchEnd = len(records)
		}
		g.Go(func() error {
			batch := records[batchStart:batchEnd]
			vecRecords := make([]vectorstore.Record, len(batch))
			for i, r := range batch {
				vecRecords[i] = vectorstore.Record{ID: r.ID, Content: r.Content, Embedding: r.Embedding, Metadata: r.Metadata}
			}
			return p.VectorDB.AddDocuments(gctx, vecRecords)
		})
	}
	return g.Wait()
}

func nonEmptyChunks(chunks []chunk.Chunk) []chunk.Chunk {
	out := make([]chunk.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Content != "" {
			out = append(out, c)
		}
	}
	return out
}
