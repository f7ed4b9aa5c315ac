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

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// LocalIndexType is the native index algorithm requested. hnsw-flat and
// ivf-flat are accepted but downgraded to flat-ip, matching this store's
// one required algorithm.
type LocalIndexType string

const (
	FlatIP  LocalIndexType = "flat-ip"
	HNSW    LocalIndexType = "hnsw-flat"
	IVFFlat LocalIndexType = "ivf-flat"
)

// LocalConfig configures the file-backed local index.
type LocalConfig struct {
	IndexPath string
	IndexType LocalIndexType
	Dimension int
	Threshold float32
}

func (c *LocalConfig) setDefaults() {
	if c.IndexType == "" {
		c.IndexType = FlatIP
	}
}

var _ Provider = (*LocalStore)(nil)

// LocalStore is the required local file-backed flat inner-product index.
// It keeps an in-memory id→record map mirrored to two on-disk files,
// index.bin (the native vector array) and documents.json (the ordered
// record array), each written via temp-file+rename so neither is left
// half-written. The two renames are separate steps, so a crash between
// them can leave index.bin one write behind documents.json.
type LocalStore struct {
	cfg LocalConfig
	mu  sync.RWMutex

	order   []string // insertion order of ids, mirrors documents.json
	records map[string]Record
}

// NewLocalStore builds a LocalStore bound to cfg. Call Initialize before use.
func NewLocalStore(cfg LocalConfig) *LocalStore {
	cfg.setDefaults()
	if cfg.IndexType == HNSW || cfg.IndexType == IVFFlat {
		slog.Warn("vectorstore: requested index type downgraded to flat-ip", "requested", cfg.IndexType)
		cfg.IndexType = FlatIP
	}
	return &LocalStore{cfg: cfg, records: make(map[string]Record)}
}

func (s *LocalStore) indexPath() string     { return filepath.Join(s.cfg.IndexPath, "index.bin") }
func (s *LocalStore) documentsPath() string { return filepath.Join(s.cfg.IndexPath, "documents.json") }

// Initialize creates the index directory if needed and loads the persisted
// records, vectors included, from documents.json; index.bin is not read.
// If documents.json is missing or corrupt, the store starts empty and logs
// a warning rather than failing.
func (s *LocalStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.cfg.IndexPath, 0o755); err != nil {
		return ragerr.NewVectorStoreError("local", "initialize", "failed to create index directory", err)
	}

	docs, err := loadDocuments(s.documentsPath())
	if err != nil {
		slog.Warn("vectorstore: documents.json missing or corrupt, starting empty", "error", err)
		s.records = make(map[string]Record)
		s.order = nil
		return nil
	}

	s.records = make(map[string]Record, len(docs))
	s.order = make([]string, 0, len(docs))
	for _, d := range docs {
		s.records[d.ID] = d
		s.order = append(s.order, d.ID)
	}
	return nil
}

type persistedRecord struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func loadDocuments(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var persisted []persistedRecord
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, err
	}
	out := make([]Record, len(persisted))
	for i, p := range persisted {
		out[i] = Record{ID: p.ID, Content: p.Content, Embedding: p.Embedding, Metadata: p.Metadata}
	}
	return out, nil
}

// AddDocuments extends the in-memory map, then persists both files before
// returning.
func (s *LocalStore) AddDocuments(ctx context.Context, recs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range recs {
		if s.cfg.Dimension != 0 && len(r.Embedding) != s.cfg.Dimension {
			return ragerr.NewVectorStoreError("local", "addDocuments",
				fmt.Sprintf("embedding length %d does not match bound dimension %d", len(r.Embedding), s.cfg.Dimension), nil)
		}
		if _, exists := s.records[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}

	return s.persist()
}

// Delete removes ids from memory and, like every persist, re-encodes
// index.bin from the remaining vectors.
func (s *LocalStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toDelete := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		toDelete[id] = struct{}{}
	}

	newOrder := s.order[:0:0]
	for _, id := range s.order {
		if _, dead := toDelete[id]; dead {
			delete(s.records, id)
			continue
		}
		newOrder = append(newOrder, id)
	}
	s.order = newOrder

	return s.persist()
}

// Clear empties the store but keeps its configuration (path, dimension,
// index type) intact.
func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]Record)
	s.order = nil
	return s.persist()
}

func (s *LocalStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

// Search returns up to k hits ranked by descending inner-product score,
// filtered by the configured threshold.
func (s *LocalStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, nil
	}
	if k > len(s.order) {
		k = len(s.order)
	}
	if k <= 0 {
		return nil, nil
	}

	q := make([]float64, len(query))
	for i, v := range query {
		q[i] = float64(v)
	}
	qNorm := floats.Norm(q, 2)

	scored := make([]Hit, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		score := innerProduct(query, r.Embedding, qNorm)
		if score < s.cfg.Threshold {
			continue
		}
		scored = append(scored, Hit{ID: r.ID, Content: r.Content, Score: score, Metadata: r.Metadata})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// innerProduct computes the cosine-normalized inner product between query
// and vec, returning 0 if either vector is empty.
func innerProduct(query, vec []float32, queryNorm float64) float32 {
	if len(query) == 0 || len(vec) == 0 || len(query) != len(vec) {
		return 0
	}
	q := make([]float64, len(query))
	v := make([]float64, len(vec))
	for i := range query {
		q[i] = float64(query[i])
		v[i] = float64(vec[i])
	}
	dot := floats.Dot(q, v)
	vNorm := floats.Norm(v, 2)
	if queryNorm == 0 || vNorm == 0 {
		return 0
	}
	return float32(dot / (queryNorm * vNorm))
}

func (s *LocalStore) TestConnection(ctx context.Context) bool {
	return os.MkdirAll(s.cfg.IndexPath, 0o755) == nil
}

// persist writes documents.json and then index.bin, each via its own
// temp-file+rename; the pair is not replaced as one unit. Must be called
// with s.mu held.
func (s *LocalStore) persist() error {
	persisted := make([]persistedRecord, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		persisted = append(persisted, persistedRecord{ID: r.ID, Content: r.Content, Embedding: r.Embedding, Metadata: r.Metadata})
	}

	docsJSON, err := json.Marshal(persisted)
	if err != nil {
		return ragerr.NewVectorStoreError("local", "persist", "failed to marshal documents", err)
	}
	if err := writeAtomic(s.documentsPath(), docsJSON); err != nil {
		return ragerr.NewVectorStoreError("local", "persist", "failed to write documents.json", err)
	}

	indexBytes, err := encodeIndex(persisted)
	if err != nil {
		return ragerr.NewVectorStoreError("local", "persist", "failed to encode index", err)
	}
	if err := writeAtomic(s.indexPath(), indexBytes); err != nil {
		return ragerr.NewVectorStoreError("local", "persist", "failed to write index.bin", err)
	}
	return nil
}

// encodeIndex serializes the flat vector array: a 4-byte count, then for
// each vector a 4-byte length followed by its float32 components.
func encodeIndex(records []persistedRecord) ([]byte, error) {
	var buf []byte
	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, uint32(len(records)))
	buf = append(buf, count...)

	for _, r := range records {
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(r.Embedding)))
		buf = append(buf, lenBuf...)
		for _, f := range r.Embedding {
			vBuf := make([]byte, 4)
			binary.LittleEndian.PutUint32(vBuf, math.Float32bits(f))
			buf = append(buf, vBuf...)
		}
	}
	return buf, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
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
