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

// Package vectorstore abstracts over vector index backends behind one
// Provider interface, with a local file-backed flat index as the required
// implementation and remote-service variants behind the same contract.
package vectorstore

import "context"

// Record is one document chunk's embedding plus the content and metadata
// needed to reconstruct a search hit without a second lookup.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Hit is one search result, ranked by Score (1.0 = most similar).
type Hit struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]string
}

// Provider is the abstract vector index contract every backend satisfies.
type Provider interface {
	// Initialize binds to (and, for the local backend, loads) the store.
	Initialize(ctx context.Context) error
	// AddDocuments upserts records by id, persisting before returning.
	AddDocuments(ctx context.Context, records []Record) error
	// Search returns up to k hits ordered by descending score. k is
	// clamped to the stored count; an empty store returns (nil, nil).
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// Delete removes the given ids; non-existent ids are ignored.
	Delete(ctx context.Context, ids []string) error
	// Clear empties the store while preserving its identity and params.
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	TestConnection(ctx context.Context) bool
}
