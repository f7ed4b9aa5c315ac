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
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/llm"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

// providerTestRequest is the wire shape for /test/llm and /test/vector:
// provider names the backend, config carries its provider-specific
// parameters verbatim (decoded against the matching Config branch below).
type providerTestRequest struct {
	Provider string          `json:"provider"`
	Config   json.RawMessage `json:"config"`
}

type connectionResult struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

func buildLLMConfig(req providerTestRequest) (llm.Config, error) {
	cfg := llm.Config{Type: llm.ProviderType(req.Provider)}
	if len(req.Config) == 0 {
		return cfg, nil
	}
	switch cfg.Type {
	case llm.OpenAI, llm.AzureOpenAI:
		return cfg, json.Unmarshal(req.Config, &cfg.OpenAI)
	case llm.Anthropic:
		return cfg, json.Unmarshal(req.Config, &cfg.Anthropic)
	}
	return cfg, nil
}

func (s *Server) handleTestLLM(w http.ResponseWriter, r *http.Request) {
	var req providerTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := buildLLMConfig(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid llm config: "+err.Error())
		return
	}
	provider, err := llm.New(cfg)
	if err != nil {
		respondJSON(w, http.StatusOK, connectionResult{Connected: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, connectionResult{Connected: provider.TestConnection(r.Context())})
}

func buildVectorConfig(req providerTestRequest) (vectorstore.Config, error) {
	cfg := vectorstore.Config{Type: vectorstore.ProviderType(req.Provider)}
	if len(req.Config) == 0 {
		return cfg, nil
	}
	switch cfg.Type {
	case vectorstore.Faiss:
		return cfg, json.Unmarshal(req.Config, &cfg.Faiss)
	case vectorstore.Pinecone:
		return cfg, json.Unmarshal(req.Config, &cfg.Pinecone)
	case vectorstore.Chroma:
		return cfg, json.Unmarshal(req.Config, &cfg.Chroma)
	case vectorstore.Qdrant:
		return cfg, json.Unmarshal(req.Config, &cfg.Qdrant)
	}
	return cfg, nil
}

func (s *Server) handleTestVector(w http.ResponseWriter, r *http.Request) {
	var req providerTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := buildVectorConfig(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid vector config: "+err.Error())
		return
	}
	provider, err := vectorstore.New(cfg)
	if err != nil {
		respondJSON(w, http.StatusOK, connectionResult{Connected: false, Error: err.Error()})
		return
	}
	if err := provider.Initialize(r.Context()); err != nil {
		respondJSON(w, http.StatusOK, connectionResult{Connected: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, connectionResult{Connected: provider.TestConnection(r.Context())})
}

type ocrDiagnosticsView struct {
	TextLength       int       `json:"textLength"`
	PageConfidences  []float64 `json:"pageConfidences"`
	DetectedLanguage string    `json:"detectedLanguage"`
	TesseractVersion string    `json:"tesseractVersion"`
}

// handleTestOCR runs C1's OCR fallback standalone against one uploaded PDF
// and reports the diagnostics the web layer surfaces for an OCR health
// check: recognized text length, per-page confidence, detected language,
// and the tesseract binary version in use.
func (s *Server) handleTestOCR(w http.ResponseWriter, r *http.Request) {
	if s.OCR == nil {
		respondError(w, http.StatusConflict, "OCR is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "ragengine-test-ocr-*.pdf")
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := io.Copy(tmp, file); err != nil {
		writeError(w, err)
		return
	}

	extractor := extract.New(s.OCR)
	diag, err := extractor.Diagnose(r.Context(), tmp.Name())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ocrDiagnosticsView{
		TextLength:       diag.TextLength,
		PageConfidences:  diag.PageConfidences,
		DetectedLanguage: string(diag.DetectedLanguage),
		TesseractVersion: diag.TesseractVersion,
	})
}
