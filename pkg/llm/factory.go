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

package llm

import "fmt"

// ProviderType is the discriminant tag selecting which chat backend a
// Config constructs.
type ProviderType string

const (
	OpenAI      ProviderType = "openai"
	AzureOpenAI ProviderType = "azure-openai"
	Anthropic   ProviderType = "anthropic"
)

// Config is a tagged union of every backend's parameters. Only the fields
// for the selected Type need to be set. AzureOpenAI reuses OpenAIConfig
// since both configuration kinds are served by OpenAIProvider.
type Config struct {
	Type      ProviderType
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
}

func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = OpenAI
	}
}

func (c Config) Validate() error {
	switch c.Type {
	case OpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("llm: openai config requires apiKey")
		}
	case AzureOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("llm: azure-openai config requires apiKey")
		}
		if c.OpenAI.Endpoint == "" {
			return fmt.Errorf("llm: azure-openai config requires endpoint")
		}
	case Anthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("llm: anthropic config requires apiKey")
		}
	default:
		return fmt.Errorf("llm: unknown provider type %q", c.Type)
	}
	return nil
}

// New builds a Provider for cfg.Type.
func New(cfg Config) (Provider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case OpenAI, AzureOpenAI:
		return NewOpenAIProvider(cfg.OpenAI)
	case Anthropic:
		return NewAnthropicProvider(cfg.Anthropic)
	default:
		return nil, fmt.Errorf("llm: unknown provider type %q", cfg.Type)
	}
}
