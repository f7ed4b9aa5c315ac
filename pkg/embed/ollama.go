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

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ragforge/ragengine/pkg/httpx"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// OllamaConfig configures a local Ollama embedding backend.
type OllamaConfig struct {
	BaseURL   string
	Model     string
	Dimension int
}

func (c *OllamaConfig) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "nomic-embed-text"
	}
	if c.Dimension == 0 {
		c.Dimension = 768
	}
}

var _ Provider = (*OllamaProvider)(nil)

// OllamaProvider talks to a local Ollama server. Ollama's embedding
// endpoint is not safe for concurrent calls against the same model, so
// requests are serialized with a mutex rather than relying on the server.
type OllamaProvider struct {
	client *httpx.Client
	cfg    OllamaConfig
	mu     sync.Mutex
}

func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	cfg.setDefaults()
	return &OllamaProvider{client: httpx.New(), cfg: cfg}
}

func (p *OllamaProvider) Dimension() int { return p.cfg.Dimension }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *OllamaProvider) EmbedMany(ctx context.Context, texts []string) (Result, error) {
	return batchAndPace(ctx, texts, p.cfg.Model, p.embedBatch)
}

// embedBatch issues one request per text; Ollama's embeddings API does not
// accept batched input.
func (p *OllamaProvider) embedBatch(ctx context.Context, batch []string) ([][]float32, Usage, error) {
	vectors := make([][]float32, len(batch))
	for i, text := range batch {
		v, err := p.embedSingle(ctx, text)
		if err != nil {
			return nil, Usage{}, err
		}
		vectors[i] = v
	}
	return vectors, Usage{}, nil
}

func (p *OllamaProvider) embedSingle(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, err := json.Marshal(ollamaEmbedRequest{Model: p.cfg.Model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ragerr.NewEmbeddingError("ollama", p.cfg.Model, "request failed", err)
	}
	defer resp.Body.Close()

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ragerr.NewEmbeddingError("ollama", p.cfg.Model, "decode response", err)
	}
	return parsed.Embedding, nil
}

func (p *OllamaProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return p.embedSingle(ctx, text)
}

func (p *OllamaProvider) TestConnection(ctx context.Context) bool {
	_, err := p.EmbedOne(ctx, "connection test")
	return err == nil
}
