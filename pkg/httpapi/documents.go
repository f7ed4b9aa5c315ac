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

package httpapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/ingest"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// handleUploadDocuments stores up to maxUploadFiles files of an allowed
// extension, each within maxUploadBytes, creates a Pending registry entry
// per file, and kicks off processing asynchronously per file so the
// request returns as soon as storage succeeds.
func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	pipeline, ok := s.ingestPipeline(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadFiles * maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided under field \"files\"")
		return
	}
	if len(files) > maxUploadFiles {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d files per upload", maxUploadFiles))
		return
	}

	if err := os.MkdirAll(s.UploadsDir, 0o755); err != nil {
		writeError(w, err)
		return
	}

	created := make([]docstore.Document, 0, len(files))
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedUploadExt[ext] {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported extension %q", ext))
			return
		}
		if fh.Size > maxUploadBytes {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("file %q exceeds %d bytes", fh.Filename, maxUploadBytes))
			return
		}

		src, err := fh.Open()
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			writeError(w, err)
			return
		}

		id := uuid.NewString()
		storagePath := filepath.Join(s.UploadsDir, id+ext)
		if err := os.WriteFile(storagePath, data, 0o644); err != nil {
			writeError(w, err)
			return
		}

		doc := docstore.Document{
			ID:          id,
			Filename:    fh.Filename,
			Extension:   strings.TrimPrefix(ext, "."),
			ByteSize:    fh.Size,
			StoragePath: storagePath,
			Status:      docstore.Pending,
		}
		saved, err := s.Registry.Create(r.Context(), doc)
		if err != nil {
			writeError(w, err)
			return
		}
		created = append(created, saved)

		go processInBackground(pipeline, saved, data)
	}

	respondJSON(w, http.StatusAccepted, created)
}

// processInBackground runs one document through the processor off the
// request goroutine. Failures are already recorded on the document by
// Process itself (status=Error); there is nothing further to report here.
func processInBackground(pipeline *ingest.Pipeline, doc docstore.Document, data []byte) {
	ctx := context.Background()
	if _, err := pipeline.Process(ctx, doc, data, ingest.DefaultOptions()); err != nil {
		slog.Warn("document processing failed", "documentId", doc.ID, "filename", doc.Filename, "error", err)
	}
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pipeline, ok := s.ingestPipeline(w, r)
	if !ok {
		return
	}

	doc, found, err := s.Registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}

	if ids := doc.ChunkIDs(); len(ids) > 0 {
		if err := pipeline.VectorDB.Delete(r.Context(), ids); err != nil {
			writeError(w, err)
			return
		}
	}
	if doc.StoragePath != "" {
		_ = os.Remove(doc.StoragePath)
	}
	if err := s.Registry.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReindexDocument re-runs the processor against the document's
// stored file. Its previous chunks are deleted from the vector index
// first so a reindex never leaves stale vectors behind a shrunk chunk set.
func (s *Server) handleReindexDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pipeline, ok := s.ingestPipeline(w, r)
	if !ok {
		return
	}

	doc, found, err := s.Registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}

	data, err := os.ReadFile(doc.StoragePath)
	if err != nil {
		writeError(w, err)
		return
	}
	if ids := doc.ChunkIDs(); len(ids) > 0 {
		if err := pipeline.VectorDB.Delete(r.Context(), ids); err != nil {
			writeError(w, err)
			return
		}
	}

	if _, err := pipeline.Process(r.Context(), doc, data, ingest.DefaultOptions()); err != nil {
		writeError(w, err)
		return
	}
	updated, _, err := s.Registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// handleClearAllDocuments empties the vector index, clears the registry,
// and best-effort removes every physical upload file, per C7's
// clearAllDocuments contract.
func (s *Server) handleClearAllDocuments(w http.ResponseWriter, r *http.Request) {
	pipeline, ok := s.ingestPipeline(w, r)
	if !ok {
		return
	}

	if err := pipeline.VectorDB.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Registry.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	entries, err := os.ReadDir(s.UploadsDir)
	if err == nil {
		for _, entry := range entries {
			_ = os.Remove(filepath.Join(s.UploadsDir, entry.Name()))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
