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
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// modelDimensions gives the known output dimension for OpenAI's published
// embedding models, used when Config.Dimension is left unset.
var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIConfig configures the OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Dimension int
}

func (c *OpenAIConfig) setDefaults() {
	if c.Model == "" {
		c.Model = "text-embedding-ada-002"
	}
	if c.Dimension == 0 {
		c.Dimension = modelDimensions[c.Model]
		if c.Dimension == 0 {
			c.Dimension = 1536
		}
	}
}

var _ Provider = (*OpenAIProvider)(nil)

// OpenAIProvider embeds text via OpenAI's embeddings endpoint using the
// official SDK.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAIProvider builds a Provider bound to cfg. cfg.APIKey is required.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: openai provider requires an API key")
	}
	cfg.setDefaults()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

func (p *OpenAIProvider) Dimension() int { return p.cfg.Dimension }

func (p *OpenAIProvider) EmbedMany(ctx context.Context, texts []string) (Result, error) {
	return batchAndPace(ctx, texts, p.cfg.Model, p.embedBatch)
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, batch []string) ([][]float32, Usage, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: batch,
		Model: openai.EmbeddingModel(p.cfg.Model),
	})
	if err != nil {
		return nil, Usage{}, ragerr.NewEmbeddingError("openai", p.cfg.Model, "CreateEmbeddings failed", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, Usage{PromptTokens: resp.Usage.PromptTokens, TotalTokens: resp.Usage.TotalTokens}, nil
}

func (p *OpenAIProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	result, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(result.Vectors) == 0 {
		return nil, ragerr.NewEmbeddingError("openai", p.cfg.Model, "no vector returned", nil)
	}
	return result.Vectors[0], nil
}

func (p *OpenAIProvider) TestConnection(ctx context.Context) bool {
	_, err := p.EmbedOne(ctx, "connection test")
	return err == nil
}
