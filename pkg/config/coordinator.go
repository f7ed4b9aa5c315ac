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
	"sync"

	"github.com/google/uuid"

	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/metrics"
	"github.com/ragforge/ragengine/pkg/ragerr"
	"github.com/ragforge/ragengine/pkg/registry"
)

// Status summarizes the result of one backend's testConnection call
// during systemStatus.
type Status struct {
	Connected bool
	Error     string
}

// SystemStatus reports whether an active configuration exists and a
// fresh connectivity check against each of its three providers.
type SystemStatus struct {
	HasActiveConfig bool
	LLM             Status
	Embedding       Status
	Vector          Status
	DocumentCount   int
}

// Coordinator is C10: it validates, persists, and activates Configuration
// records and lazily builds the pipeline bound to each owner's active one.
// Configuration activation is serialized globally per owner, per the
// concurrency model; a single mutex is enough at this engine's scale.
type Coordinator struct {
	mu       sync.Mutex
	store    *store
	registry docstore.Registry
	metrics  *metrics.Metrics
	ocr      *extract.OCRConfig
	active   *registry.BaseRegistry[*ActivePipeline] // owner -> pipeline bound to its active config
}

// New builds a Coordinator. path is the YAML file configurations are
// mirrored to; an empty path keeps everything in memory only (used by
// tests). ocr is nil when the OCR fallback is not configured for this
// process; every pipeline built by this Coordinator shares it.
func New(path string, docs docstore.Registry, m *metrics.Metrics, ocr *extract.OCRConfig) *Coordinator {
	s := newStore(path)
	s.load()
	return &Coordinator{store: s, registry: docs, metrics: m, ocr: ocr, active: registry.NewBaseRegistry[*ActivePipeline]()}
}

// setActive replaces (or inserts) owner's cached pipeline. The underlying
// registry.Registry rejects re-registering an existing name, so a stale
// entry is removed first.
func (c *Coordinator) setActive(owner string, p *ActivePipeline) {
	_ = c.active.Remove(owner)
	_ = c.active.Register(owner, p)
}

// Create validates every provider in snapshot via testConnection, then
// persists it. snapshot.ID is assigned if empty.
func (c *Coordinator) Create(ctx context.Context, snapshot Configuration) (Configuration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if _, err := validateFn(ctx, snapshot); err != nil {
		return Configuration{}, err
	}
	if err := c.store.put(snapshot); err != nil {
		return Configuration{}, err
	}
	if snapshot.Active {
		if err := c.store.deactivateOthers(snapshot.Owner, snapshot.ID); err != nil {
			return Configuration{}, err
		}
		c.rebuild(snapshot)
	}
	return snapshot, nil
}

// Get returns one configuration by id.
func (c *Coordinator) Get(id string) (Configuration, error) {
	cfg, ok := c.store.get(id)
	if !ok {
		return Configuration{}, ErrNotFound
	}
	return cfg, nil
}

// List returns every configuration owned by owner, or every configuration
// if owner is empty.
func (c *Coordinator) List(owner string) []Configuration {
	return c.store.list(owner)
}

// Update merges patch into the existing record, re-validating against the
// backends only if any provider field changed. If the updated record is
// active, the owner's pipeline is rebuilt from the new providers.
func (c *Coordinator) Update(ctx context.Context, id string, patch Patch) (Configuration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.store.get(id)
	if !ok {
		return Configuration{}, ErrNotFound
	}
	merged := existing.applyPatch(patch)

	if patch.touchesProviders() {
		if _, err := validateFn(ctx, merged); err != nil {
			return Configuration{}, err
		}
	}
	if err := c.store.put(merged); err != nil {
		return Configuration{}, err
	}
	if merged.Active {
		c.rebuild(merged)
	}
	return merged, nil
}

// Activate atomically deactivates every other configuration owned by
// owner, activates id, and rebuilds that owner's pipeline.
func (c *Coordinator) Activate(ctx context.Context, id, owner string) (Configuration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, ok := c.store.get(id)
	if !ok {
		return Configuration{}, ErrNotFound
	}
	if cfg.Owner != owner {
		return Configuration{}, ErrNotFound
	}
	p, err := validateFn(ctx, cfg)
	if err != nil {
		return Configuration{}, err
	}
	cfg.Active = true
	if err := c.store.deactivateOthers(owner, id); err != nil {
		return Configuration{}, err
	}
	if err := c.store.put(cfg); err != nil {
		return Configuration{}, err
	}
	c.setActive(owner, buildActivePipeline(cfg, p, c.registry, c.metrics, c.ocr))
	return cfg, nil
}

// rebuild constructs fresh providers for cfg and replaces the cached
// pipeline for cfg.Owner. Called with c.mu held.
func (c *Coordinator) rebuild(cfg Configuration) {
	p, err := buildProviders(cfg)
	if err != nil {
		return
	}
	c.setActive(cfg.Owner, buildActivePipeline(cfg, p, c.registry, c.metrics, c.ocr))
}

// GetActivePipeline returns owner's pipeline, constructing it lazily from
// the active configuration on first call. Fails with
// NoActiveConfigurationError if owner has no active configuration.
func (c *Coordinator) GetActivePipeline(owner string) (*ActivePipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.active.Get(owner); ok {
		return p, nil
	}
	for _, cfg := range c.store.list(owner) {
		if cfg.Active {
			p, err := buildProviders(cfg)
			if err != nil {
				return nil, err
			}
			pipeline := buildActivePipeline(cfg, p, c.registry, c.metrics, c.ocr)
			c.setActive(owner, pipeline)
			return pipeline, nil
		}
	}
	return nil, ragerr.NewNoActiveConfigurationError(owner)
}

// SystemStatus reports the active configuration's connectivity and the
// registry's document count, which is the source of truth rather than the
// vector index's own count.
func (c *Coordinator) SystemStatus(ctx context.Context, owner string) (SystemStatus, error) {
	count, err := c.registry.Count(ctx)
	if err != nil {
		return SystemStatus{}, err
	}
	result := SystemStatus{DocumentCount: count}

	pipeline, err := c.GetActivePipeline(owner)
	if err != nil {
		return result, nil
	}
	result.HasActiveConfig = true
	result.LLM = testStatus(pipeline.RAG.LLM.TestConnection(ctx))
	result.Embedding = testStatus(pipeline.RAG.Embedder.TestConnection(ctx))
	result.Vector = testStatus(pipeline.RAG.VectorDB.TestConnection(ctx))
	return result, nil
}

func testStatus(connected bool) Status {
	if connected {
		return Status{Connected: true}
	}
	return Status{Connected: false, Error: "connection test failed"}
}
