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

// Package config binds provider selections into live instances: it
// persists configuration snapshots, validates them against their backends,
// and materializes the active ingest/query pipeline for an owner.
package config

import (
	"context"
	"time"

	"github.com/ragforge/ragengine/pkg/embed"
	"github.com/ragforge/ragengine/pkg/llm"
	"github.com/ragforge/ragengine/pkg/ragerr"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

// Configuration is an immutable-by-convention snapshot of the three
// provider selections that back one owner's pipeline. Only one
// Configuration per owner may have Active set at a time.
type Configuration struct {
	ID        string             `yaml:"id"`
	Owner     string             `yaml:"owner"`
	Name      string             `yaml:"name"`
	LLM       llm.Config         `yaml:"llm"`
	Embedding embed.Config       `yaml:"embedding"`
	Vector    vectorstore.Config `yaml:"vector"`
	TopK      int                `yaml:"topK"`
	Active    bool               `yaml:"active"`
	CreatedAt time.Time          `yaml:"createdAt"`
}

// Patch carries the subset of fields an update(id, patch) call changes.
// Nil fields are left untouched.
type Patch struct {
	Name      *string
	LLM       *llm.Config
	Embedding *embed.Config
	Vector    *vectorstore.Config
}

func (p Patch) touchesProviders() bool {
	return p.LLM != nil || p.Embedding != nil || p.Vector != nil
}

func (c Configuration) applyPatch(p Patch) Configuration {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.LLM != nil {
		c.LLM = *p.LLM
	}
	if p.Embedding != nil {
		c.Embedding = *p.Embedding
	}
	if p.Vector != nil {
		c.Vector = *p.Vector
	}
	return c
}

// providers is the set of live instances bound to one Configuration.
type providers struct {
	llm      llm.Provider
	embedder embed.Provider
	vector   vectorstore.Provider
}

// buildProviders constructs the three backend instances for cfg without
// validating connectivity.
func buildProviders(cfg Configuration) (providers, error) {
	llmProvider, err := llm.New(cfg.LLM)
	if err != nil {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "llm", "failed to construct llm provider", err)
	}
	embedder, err := embed.New(cfg.Embedding)
	if err != nil {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "embedding", "failed to construct embedding provider", err)
	}
	vectorDB, err := vectorstore.New(cfg.Vector)
	if err != nil {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "vector", "failed to construct vector provider", err)
	}
	return providers{llm: llmProvider, embedder: embedder, vector: vectorDB}, nil
}

// validateFn is indirected through a variable so tests can stub out the
// real network-backed testConnection calls without changing Coordinator's
// production wiring.
var validateFn = validate

// validate constructs every provider and calls testConnection on each,
// per C10's create/update/activate contract. The first failing provider's
// name is reported on the returned error.
func validate(ctx context.Context, cfg Configuration) (providers, error) {
	p, err := buildProviders(cfg)
	if err != nil {
		return providers{}, err
	}
	if err := p.vector.Initialize(ctx); err != nil {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "vector", "index initialization failed", err)
	}
	if !p.llm.TestConnection(ctx) {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "llm", "connection test failed", nil)
	}
	if !p.embedder.TestConnection(ctx) {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "embedding", "connection test failed", nil)
	}
	if !p.vector.TestConnection(ctx) {
		return providers{}, ragerr.NewConfigurationError(cfg.ID, "vector", "connection test failed", nil)
	}
	return p, nil
}
