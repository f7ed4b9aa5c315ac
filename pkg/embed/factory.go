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

import "fmt"

// ProviderType is the discriminant tag selecting which embedding backend a
// Config constructs.
type ProviderType string

const (
	OpenAI ProviderType = "openai"
	Cohere ProviderType = "cohere"
	Ollama ProviderType = "ollama"
)

// Config is a tagged union of every backend's parameters. Only the fields
// for the selected Type need to be set.
type Config struct {
	Type      ProviderType
	OpenAI    OpenAIConfig
	Cohere    CohereConfig
	Ollama    OllamaConfig
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
			return fmt.Errorf("embed: openai config requires apiKey")
		}
	case Cohere:
		if c.Cohere.APIKey == "" {
			return fmt.Errorf("embed: cohere config requires apiKey")
		}
	case Ollama:
		// no required fields; defaults point at localhost.
	default:
		return fmt.Errorf("embed: unknown provider type %q", c.Type)
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
	case OpenAI:
		return NewOpenAIProvider(cfg.OpenAI)
	case Cohere:
		return NewCohereProvider(cfg.Cohere)
	case Ollama:
		return NewOllamaProvider(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("embed: unknown provider type %q", cfg.Type)
	}
}
