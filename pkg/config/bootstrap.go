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

package config

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ragforge/ragengine/pkg/embed"
	"github.com/ragforge/ragengine/pkg/llm"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

// LoadEnvFiles loads .env.local then .env into the process environment, if
// present. Missing files are not an error.
func LoadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

// Bootstrap creates and activates a default Configuration for owner from
// the environment, if owner has no configuration yet and OPENAI_API_KEY is
// present. A missing credential is not an error: it simply leaves owner
// without a default, so later queries fail with NoActiveConfigurationError
// per the spec's documented fallback.
func (c *Coordinator) Bootstrap(ctx context.Context, owner string) (Configuration, bool, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return Configuration{}, false, nil
	}
	if len(c.List(owner)) > 0 {
		return Configuration{}, false, nil
	}

	cfg := Configuration{
		Owner: owner,
		Name:  "default",
		LLM: llm.Config{
			Type:   llm.OpenAI,
			OpenAI: llm.OpenAIConfig{APIKey: apiKey, Model: envOr("OPENAI_MODEL", "gpt-4o")},
		},
		Embedding: embed.Config{
			Type: embed.OpenAI,
			OpenAI: embed.OpenAIConfig{
				APIKey:    apiKey,
				Model:     envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
				Dimension: envIntOr("VECTOR_DIMENSION", 1536),
			},
		},
		Vector: vectorstore.Config{
			Type: vectorstore.ProviderType(envOr("VECTOR_PROVIDER", string(vectorstore.Faiss))),
			Faiss: vectorstore.LocalConfig{
				IndexPath: envOr("FAISS_INDEX_PATH", "./data/faiss_index"),
				IndexType: vectorstore.LocalIndexType(envOr("FAISS_INDEX_TYPE", string(vectorstore.FlatIP))),
				Dimension: envIntOr("VECTOR_DIMENSION", 1536),
				Threshold: envFloatOr("VECTOR_THRESHOLD", 0),
			},
		},
		TopK:   envIntOr("VECTOR_TOP_K", 5),
		Active: true,
	}

	created, err := c.Create(ctx, cfg)
	if err != nil {
		return Configuration{}, false, err
	}
	return created, true, nil
}
