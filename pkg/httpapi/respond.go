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
	"errors"
	"net/http"

	"github.com/ragforge/ragengine/pkg/config"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// writeError maps a core error to an HTTP status by kind, following the
// taxonomy's recovery semantics: configuration/validation problems are
// client errors, upstream/backend failures are server errors.
func writeError(w http.ResponseWriter, err error) {
	if err == nil {
		respondError(w, http.StatusInternalServerError, "unknown error")
		return
	}

	var noActive *ragerr.NoActiveConfigurationError
	var configErr *ragerr.ConfigurationError
	if errors.As(err, &noActive) || errors.As(err, &configErr) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, config.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var extractionErr *ragerr.ExtractionError
	var embeddingErr *ragerr.EmbeddingError
	var llmErr *ragerr.LLMError
	var vectorErr *ragerr.VectorStoreError
	var processingErr *ragerr.ProcessingError
	switch {
	case errors.As(err, &extractionErr), errors.As(err, &embeddingErr),
		errors.As(err, &llmErr), errors.As(err, &vectorErr), errors.As(err, &processingErr):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
