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

import "fmt"

// ProviderType is the discriminant tag selecting which vector backend a
// Config constructs. "faiss" names the required local file-backed flat
// index, matching the naming the spec's recognized configuration options
// and environment variables use (FAISS_INDEX_PATH, FAISS_INDEX_TYPE).
type ProviderType string

const (
	Faiss    ProviderType = "faiss"
	Pinecone ProviderType = "pinecone"
	Chroma   ProviderType = "chroma"
	// Qdrant is a bonus backend beyond the spec's enumerated three,
	// carried because the retrieval pack's providers module already
	// depends on this client.
	Qdrant ProviderType = "qdrant"
)

// Config is a tagged union of every backend's parameters. Only the fields
// for the selected Type need to be set.
type Config struct {
	Type     ProviderType
	Faiss    LocalConfig
	Pinecone PineconeConfig
	Chroma   ChromaConfig
	Qdrant   QdrantConfig
}

func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = Faiss
	}
}

// New builds a Provider for cfg.Type. An unknown type, or a remote backend
// missing its required settings, fails with an error naming it; the config
// package wraps construction failures in a ConfigurationError.
func New(cfg Config) (Provider, error) {
	cfg.SetDefaults()
	switch cfg.Type {
	case Faiss:
		return NewLocalStore(cfg.Faiss), nil
	case Pinecone:
		return NewPineconeStore(cfg.Pinecone)
	case Chroma:
		return NewChromaStore(cfg.Chroma)
	case Qdrant:
		return NewQdrantStore(cfg.Qdrant)
	default:
		return nil, fmt.Errorf("vectorstore: unknown provider type %q", cfg.Type)
	}
}
