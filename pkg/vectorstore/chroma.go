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

package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ragforge/ragengine/pkg/httpx"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// ChromaConfig configures a remote Chroma collection. There is no official
// Chroma Go client, so this is a hand-rolled REST client over pkg/httpx,
// matching this codebase's habit of hand-rolling a thin client per backend
// that lacks an SDK.
type ChromaConfig struct {
	Host           string
	Port           int
	CollectionName string
	SSL            bool
	Threshold      float32
}

func (c *ChromaConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.CollectionName == "" {
		c.CollectionName = "ragengine"
	}
}

func (c ChromaConfig) baseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

var _ Provider = (*ChromaStore)(nil)

// ChromaStore talks to a Chroma server's v1 collections REST API.
type ChromaStore struct {
	cfg    ChromaConfig
	client *httpx.Client
}

func NewChromaStore(cfg ChromaConfig) (*ChromaStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("vectorstore: chroma config requires a host")
	}
	cfg.setDefaults()
	return &ChromaStore{cfg: cfg, client: httpx.New()}, nil
}

// Initialize creates the collection if it does not already exist.
func (s *ChromaStore) Initialize(ctx context.Context) error {
	payload := map[string]any{
		"name":          s.cfg.CollectionName,
		"metadata":      map[string]any{},
		"get_or_create": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "initialize", "failed to marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.baseURL()+"/api/v1/collections", bytes.NewReader(body))
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "initialize", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "initialize", "create collection failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return ragerr.NewVectorStoreError("chroma", "initialize", fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, b), nil)
	}
	return nil
}

func (s *ChromaStore) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/api/v1/collections/%s%s", s.cfg.baseURL(), s.cfg.CollectionName, suffix)
}

func (s *ChromaStore) AddDocuments(ctx context.Context, records []Record) error {
	for i := 0; i < len(records); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.addBatch(ctx, records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChromaStore) addBatch(ctx context.Context, records []Record) error {
	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]any, len(records))
	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Embedding
		documents[i] = r.Content
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		metadatas[i] = meta
	}

	payload := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "addDocuments", "failed to marshal batch", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.collectionURL("/add"), bytes.NewReader(body))
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "addDocuments", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "addDocuments", "add request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return ragerr.NewVectorStoreError("chroma", "addDocuments", fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, b), nil)
	}
	return nil
}

func (s *ChromaStore) Delete(ctx context.Context, ids []string) error {
	for i := 0; i < len(ids); i += deleteBatchSize {
		end := i + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		payload := map[string]any{"ids": ids[i:end]}
		body, err := json.Marshal(payload)
		if err != nil {
			return ragerr.NewVectorStoreError("chroma", "delete", "failed to marshal request", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.collectionURL("/delete"), bytes.NewReader(body))
		if err != nil {
			return ragerr.NewVectorStoreError("chroma", "delete", "failed to build request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return ragerr.NewVectorStoreError("chroma", "delete", "delete request failed", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			return ragerr.NewVectorStoreError("chroma", "delete", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		}
	}
	return nil
}

func (s *ChromaStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	payload := map[string]any{
		"query_embeddings": [][]float32{query},
		"n_results":        k,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ragerr.NewVectorStoreError("chroma", "search", "failed to marshal query", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.collectionURL("/query"), bytes.NewReader(body))
	if err != nil {
		return nil, ragerr.NewVectorStoreError("chroma", "search", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ragerr.NewVectorStoreError("chroma", "search", "query request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, ragerr.NewVectorStoreError("chroma", "search", fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, b), nil)
	}

	var parsed chromaQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ragerr.NewVectorStoreError("chroma", "search", "failed to decode response", err)
	}
	return parsed.toHits(s.cfg.Threshold), nil
}

type chromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Distances [][]float32                `json:"distances"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
}

func (r chromaQueryResponse) toHits(threshold float32) []Hit {
	if len(r.IDs) == 0 {
		return nil
	}
	ids := r.IDs[0]
	hits := make([]Hit, 0, len(ids))
	for i, id := range ids {
		score := float32(0)
		if i < len(r.Distances[0]) {
			score = 1 - r.Distances[0][i]
		}
		if score < threshold {
			continue
		}
		content := ""
		if i < len(r.Documents) && i < len(r.Documents[0]) {
			content = r.Documents[0][i]
		}
		meta := map[string]string{}
		if len(r.Metadatas) > 0 && i < len(r.Metadatas[0]) {
			for k, v := range r.Metadatas[0][i] {
				meta[k] = fmt.Sprintf("%v", v)
			}
		}
		hits = append(hits, Hit{ID: id, Content: content, Score: score, Metadata: meta})
	}
	return hits
}

func (s *ChromaStore) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.collectionURL(""), nil)
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "clear", "failed to build request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return ragerr.NewVectorStoreError("chroma", "clear", "delete collection failed", err)
	}
	resp.Body.Close()
	return s.Initialize(ctx)
}

func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.collectionURL("/count"), nil)
	if err != nil {
		return 0, ragerr.NewVectorStoreError("chroma", "count", "failed to build request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, ragerr.NewVectorStoreError("chroma", "count", "count request failed", err)
	}
	defer resp.Body.Close()
	var n int
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return 0, ragerr.NewVectorStoreError("chroma", "count", "failed to decode response", err)
	}
	return n, nil
}

func (s *ChromaStore) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.baseURL()+"/api/v1/heartbeat", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
