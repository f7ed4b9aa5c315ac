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

// Package httpapi is the thin HTTP adapter around the engine: one chi
// route per operation in the external-interfaces table, translating JSON
// requests into core calls and core results back into JSON (or SSE for the
// streaming chat endpoint). It owns no business logic beyond request
// parsing, multipart storage, and status-code mapping.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ragforge/ragengine/pkg/config"
	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/ingest"
	"github.com/ragforge/ragengine/pkg/metrics"
)

// defaultOwner is the single-user scope this engine operates at (the spec's
// Non-goals exclude multi-tenant isolation, so one fixed owner is enough).
const defaultOwner = "default"

// maxUploadFiles and maxUploadBytes implement the upload endpoint's
// documented limits: up to 10 files, 50 MiB each.
const (
	maxUploadFiles = 10
	maxUploadBytes = 50 << 20
)

var allowedUploadExt = map[string]bool{
	".pdf": true, ".docx": true, ".txt": true, ".md": true, ".html": true, ".json": true,
}

// Server wires the coordinator and registry into chi handlers. UploadsDir
// is where uploaded files are stored for later reindex; OCR, when non-nil,
// is attached to the extractor used for ad-hoc /test/ocr diagnostics.
type Server struct {
	Coordinator *config.Coordinator
	Registry    docstore.Registry
	UploadsDir  string
	OCR         *extract.OCRConfig
	Metrics     *metrics.Metrics

	router chi.Router
}

// New builds a Server and its route table.
func New(coordinator *config.Coordinator, registry docstore.Registry, uploadsDir string, ocr *extract.OCRConfig, m *metrics.Metrics) *Server {
	s := &Server{Coordinator: coordinator, Registry: registry, UploadsDir: uploadsDir, OCR: ocr, Metrics: m}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router to mount or serve directly.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/documents", s.handleListDocuments)
	r.Post("/documents/upload", s.handleUploadDocuments)
	r.Post("/documents/clear-all", s.handleClearAllDocuments)
	r.Delete("/documents/{id}", s.handleDeleteDocument)
	r.Post("/documents/{id}/reindex", s.handleReindexDocument)

	r.Post("/chat", s.handleChat)
	r.Post("/chat/stream", s.handleChatStream)

	r.Get("/configurations", s.handleListConfigurations)
	r.Post("/configurations", s.handleCreateConfiguration)
	r.Get("/configurations/{id}", s.handleGetConfiguration)
	r.Patch("/configurations/{id}", s.handleUpdateConfiguration)
	r.Post("/configurations/{id}/activate", s.handleActivateConfiguration)

	r.Get("/system/status", s.handleSystemStatus)

	r.Post("/test/llm", s.handleTestLLM)
	r.Post("/test/vector", s.handleTestVector)
	r.Post("/test/ocr", s.handleTestOCR)

	if handler := s.Metrics.Handler(); handler != nil {
		r.Handle("/metrics", handler)
	}

	return r
}

// ingestPipeline fetches the owner's active ingest pipeline, mapped to a
// 409 (no configuration yet) rather than the generic 500.
func (s *Server) ingestPipeline(w http.ResponseWriter, r *http.Request) (*ingest.Pipeline, bool) {
	active, err := s.Coordinator.GetActivePipeline(defaultOwner)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return active.Ingest, true
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
