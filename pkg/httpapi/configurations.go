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
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ragforge/ragengine/pkg/config"
)

func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Coordinator.List(defaultOwner))
}

func (s *Server) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var cfg config.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	cfg.Owner = defaultOwner

	created, err := s.Coordinator.Create(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, err := s.Coordinator.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// handleUpdateConfiguration decodes directly into config.Patch: a field
// omitted from the request body stays nil and is left untouched by Update.
func (s *Server) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch config.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := s.Coordinator.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleActivateConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, err := s.Coordinator.Activate(r.Context(), id, defaultOwner)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}
