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
	"fmt"
	"net/http"

	"github.com/ragforge/ragengine/pkg/httpx"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// CohereConfig configures the Cohere embedding provider. There is no
// official Cohere Go SDK, so this client is hand-rolled HTTP, matching the
// style of this codebase's other non-OpenAI provider clients.
type CohereConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Dimension int
}

func (c *CohereConfig) setDefaults() {
	if c.Model == "" {
		c.Model = "embed-english-v3.0"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.cohere.ai/v1"
	}
	if c.Dimension == 0 {
		c.Dimension = 1024
	}
}

var _ Provider = (*CohereProvider)(nil)

type CohereProvider struct {
	client *httpx.Client
	cfg    CohereConfig
}

func NewCohereProvider(cfg CohereConfig) (*CohereProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: cohere provider requires an API key")
	}
	cfg.setDefaults()
	return &CohereProvider{client: httpx.New(), cfg: cfg}, nil
}

func (p *CohereProvider) Dimension() int { return p.cfg.Dimension }

type cohereEmbedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Meta       struct {
		BilledUnits struct {
			InputTokens int `json:"input_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

func (p *CohereProvider) EmbedMany(ctx context.Context, texts []string) (Result, error) {
	return batchAndPace(ctx, texts, p.cfg.Model, p.embedBatch)
}

func (p *CohereProvider) embedBatch(ctx context.Context, batch []string) ([][]float32, Usage, error) {
	body, err := json.Marshal(cohereEmbedRequest{Texts: batch, Model: p.cfg.Model, InputType: "search_document"})
	if err != nil {
		return nil, Usage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, Usage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, Usage{}, ragerr.NewEmbeddingError("cohere", p.cfg.Model, "request failed", err)
	}
	defer resp.Body.Close()

	var parsed cohereEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, Usage{}, ragerr.NewEmbeddingError("cohere", p.cfg.Model, "decode response", err)
	}

	return parsed.Embeddings, Usage{PromptTokens: parsed.Meta.BilledUnits.InputTokens}, nil
}

func (p *CohereProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	result, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(result.Vectors) == 0 {
		return nil, ragerr.NewEmbeddingError("cohere", p.cfg.Model, "no vector returned", nil)
	}
	return result.Vectors[0], nil
}

func (p *CohereProvider) TestConnection(ctx context.Context) bool {
	_, err := p.EmbedOne(ctx, "connection test")
	return err == nil
}
