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
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a configuration id does not exist.
var ErrNotFound = errors.New("config: configuration not found")

// store holds every known Configuration in memory and, when Path is set,
// mirrors it to a single YAML file via temp-file+rename so the whole set
// is written together or not at all, matching the local vector index's
// persistence idiom. A distributed config provider (consul/etcd/koanf) is
// deliberately not used here; see DESIGN.md.
type store struct {
	mu      sync.RWMutex
	path    string
	configs map[string]Configuration
}

func newStore(path string) *store {
	return &store{path: path, configs: make(map[string]Configuration)}
}

// load reads the on-disk snapshot, if any. A missing or corrupt file
// starts empty and logs a warning, matching the local index's recovery
// policy for its own persisted pair.
func (s *store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read configuration store, starting empty", "path", s.path, "error", err)
		}
		return
	}
	var records []Configuration
	if err := yaml.Unmarshal(data, &records); err != nil {
		slog.Warn("failed to parse configuration store, starting empty", "path", s.path, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range records {
		s.configs[c.ID] = c
	}
}

func (s *store) get(id string) (Configuration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.configs[id]
	return c, ok
}

func (s *store) list(owner string) []Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Configuration, 0, len(s.configs))
	for _, c := range s.configs {
		if owner == "" || c.Owner == owner {
			out = append(out, c)
		}
	}
	return out
}

// put upserts cfg and persists the whole set.
func (s *store) put(cfg Configuration) error {
	s.mu.Lock()
	s.configs[cfg.ID] = cfg
	err := s.persistLocked()
	s.mu.Unlock()
	return err
}

// deactivateOthers clears Active on every configuration owned by owner
// except keepID, then persists. Caller holds the coordinator's activation
// lock, so this is safe without its own atomic compare-and-swap.
func (s *store) deactivateOthers(owner, keepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		if c.Owner == owner && id != keepID && c.Active {
			c.Active = false
			s.configs[id] = c
		}
	}
	return s.persistLocked()
}

func (s *store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	records := make([]Configuration, 0, len(s.configs))
	for _, c := range s.configs {
		records = append(records, c)
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return err
	}
	return writeAtomic(s.path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
