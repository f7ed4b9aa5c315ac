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

	"golang.org/x/sync/errgroup"

	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// Source resolves a document's raw bytes for reprocessing, e.g. a read of
// its StoragePath on disk. Reindex and the batch processor depend on this
// rather than the filesystem directly so tests can supply fixtures.
type Source interface {
	Read(ctx context.Context, doc docstore.Document) ([]byte, error)
}

// Reindex clears the vector index, then re-runs Process concurrently over
// every supplied document.
func (p *Pipeline) Reindex(ctx context.Context, src Source, documents []docstore.Document, opts Options) error {
	if err := p.VectorDB.Clear(ctx); err != nil {
		return ragerr.NewProcessingError("", "reindex", "failed to clear vector index", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, doc := range documents {
		doc := doc
		g.Go(func() error {
			data, err := src.Read(gctx, doc)
			if err != nil {
				return ragerr.NewProcessingError(doc.ID, "reindex", "failed to read source file", err)
			}
			_, err = p.Process(gctx, doc, data, opts)
			return err
		})
	}
	return g.Wait()
}

// DeleteDocumentChunks removes every vector owned by documentId. It uses
// the registry's recorded chunk ids rather than reconstructing an id range
// from a stored count, so it stays correct even if a prior process() run
// was interrupted partway through.
func (p *Pipeline) DeleteDocumentChunks(ctx context.Context, documentID string) error {
	doc, ok, err := p.Registry.Get(ctx, documentID)
	if err != nil {
		return ragerr.NewProcessingError(documentID, "delete", "failed to read registry entry", err)
	}
	if !ok {
		return nil
	}
	ids := doc.ChunkIDs()
	if len(ids) == 0 {
		return nil
	}
	if err := p.VectorDB.Delete(ctx, ids); err != nil {
		return ragerr.NewProcessingError(documentID, "delete", "failed to delete vectors", err)
	}
	return nil
}

// ClearAllDocuments clears the vector index and removes every registry
// entry. Physical upload file cleanup is the caller's responsibility
// (best-effort, outside this package's scope).
func (p *Pipeline) ClearAllDocuments(ctx context.Context) error {
	if err := p.VectorDB.Clear(ctx); err != nil {
		return ragerr.NewProcessingError("", "clearAll", "failed to clear vector index", err)
	}
	if err := p.Registry.ClearAll(ctx); err != nil {
		return ragerr.NewProcessingError("", "clearAll", "failed to clear registry", err)
	}
	return nil
}
