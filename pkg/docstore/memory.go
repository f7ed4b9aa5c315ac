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

package docstore

import (
	"context"
	"fmt"
	"sync"
)

var _ Registry = (*MemoryRegistry)(nil)

// MemoryRegistry is a process-local Registry backed by a map, guarded by a
// single RWMutex in the style of the local vector index: reads take a
// shared lock, writes take an exclusive one.
type MemoryRegistry struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{docs: make(map[string]Document)}
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	return d, ok, nil
}

func (r *MemoryRegistry) List(_ context.Context) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryRegistry) Create(_ context.Context, doc Document) (Document, error) {
	if doc.ID == "" {
		return Document{}, fmt.Errorf("docstore: document id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return Document{}, fmt.Errorf("docstore: document %q already exists", doc.ID)
	}
	if doc.Status == "" {
		doc.Status = Pending
	}
	r.docs[doc.ID] = doc
	return doc, nil
}

// Update applies fn to a copy of the current record and stores the result,
// so callers can advance status transitions or attach chunk summaries
// without a separate read-modify-write race.
func (r *MemoryRegistry) Update(_ context.Context, id string, fn func(*Document) error) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("docstore: document %q not found", id)
	}
	if err := fn(&d); err != nil {
		return Document{}, err
	}
	r.docs[id] = d
	return d, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("docstore: document %q not found", id)
	}
	delete(r.docs, id)
	return nil
}

func (r *MemoryRegistry) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[string]Document)
	return nil
}

func (r *MemoryRegistry) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs), nil
}
