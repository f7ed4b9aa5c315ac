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
	"fmt"
	"net/http"

	"github.com/ragforge/ragengine/pkg/llm"
	"github.com/ragforge/ragengine/pkg/rag"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

type chatRequest struct {
	Message   string        `json:"message"`
	SessionID string        `json:"sessionId,omitempty"`
	History   []llm.Message `json:"history,omitempty"`
}

type chatResponse struct {
	Content string       `json:"content"`
	Sources []sourceView `json:"sources"`
	Usage   llm.Usage    `json:"usage"`
}

type sourceView struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// handleChat answers a question unary. sessionId is accepted but message
// persistence is a registry collaborator this engine does not implement;
// the field is parsed for forward compatibility only.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	active, err := s.Coordinator.GetActivePipeline(defaultOwner)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := active.RAG.Query(r.Context(), req.Message, req.History)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{
		Content: result.Content,
		Sources: toSourceViews(result.Sources),
		Usage:   result.Usage,
	})
}

func toSourceViews(hits []vectorstore.Hit) []sourceView {
	views := make([]sourceView, len(hits))
	for i, h := range hits {
		views[i] = sourceView{ID: h.ID, Content: h.Content, Score: h.Score, Metadata: h.Metadata}
	}
	return views
}

// handleChatStream answers a question as Server-Sent Events, one event
// per rag.Frame, matching the core's sources -> content* -> done|error
// ordering. Each write is flushed immediately so the client sees tokens
// as they arrive rather than buffered until the response closes.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	active, err := s.Coordinator.GetActivePipeline(defaultOwner)
	if err != nil {
		writeError(w, err)
		return
	}

	frames, err := active.RAG.QueryStream(r.Context(), req.Message, req.History)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for frame := range frames {
		sendSSEFrame(w, flusher, frame)
	}
}

func sendSSEFrame(w http.ResponseWriter, flusher http.Flusher, frame rag.Frame) {
	payload := map[string]any{"type": frame.Type}
	switch frame.Type {
	case rag.FrameSources:
		payload["sources"] = toSourceViews(frame.Sources)
	case rag.FrameContent:
		payload["content"] = frame.Content
	case rag.FrameDone:
		payload["usage"] = frame.Usage
	case rag.FrameError:
		payload["error"] = frame.Err.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
