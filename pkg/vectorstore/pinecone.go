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
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// PineconeConfig configures a remote Pinecone index, one of spec's three
// required remote vector backends.
type PineconeConfig struct {
	APIKey      string
	Environment string
	IndexName   string
	Threshold   float32
}

var _ Provider = (*PineconeStore)(nil)

type PineconeStore struct {
	cfg    PineconeConfig
	client *pinecone.Client
	idx    *pinecone.IndexConnection
}

func NewPineconeStore(cfg PineconeConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" || cfg.IndexName == "" {
		return nil, fmt.Errorf("vectorstore: pinecone config requires apiKey and indexName")
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, ragerr.NewConfigurationError("pinecone", "vector", "failed to construct pinecone client", err)
	}
	return &PineconeStore{cfg: cfg, client: client}, nil
}

func (s *PineconeStore) Initialize(ctx context.Context) error {
	desc, err := s.client.DescribeIndex(ctx, s.cfg.IndexName)
	if err != nil {
		return ragerr.NewVectorStoreError("pinecone", "initialize", fmt.Sprintf("index %q not found", s.cfg.IndexName), err)
	}
	idx, err := s.client.Index(pinecone.NewIndexConnParams{Host: desc.Host})
	if err != nil {
		return ragerr.NewVectorStoreError("pinecone", "initialize", "failed to open index connection", err)
	}
	s.idx = idx
	return nil
}

func (s *PineconeStore) AddDocuments(ctx context.Context, records []Record) error {
	for i := 0; i < len(records); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		vectors := make([]*pinecone.Vector, 0, end-i)
		for _, r := range records[i:end] {
			meta := map[string]any{"content": r.Content}
			for k, v := range r.Metadata {
				meta[k] = v
			}
			metaStruct, err := pinecone.NewMetadata(meta)
			if err != nil {
				return ragerr.NewVectorStoreError("pinecone", "addDocuments", "invalid metadata", err)
			}
			vectors = append(vectors, &pinecone.Vector{
				Id:       r.ID,
				Values:   &r.Embedding,
				Metadata: metaStruct,
			})
		}
		if _, err := s.idx.UpsertVectors(ctx, vectors); err != nil {
			return ragerr.NewVectorStoreError("pinecone", "addDocuments", "upsert failed", err)
		}
	}
	return nil
}

func (s *PineconeStore) Delete(ctx context.Context, ids []string) error {
	for i := 0; i < len(ids); i += deleteBatchSize {
		end := i + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.idx.DeleteVectorsById(ctx, ids[i:end]); err != nil {
			return ragerr.NewVectorStoreError("pinecone", "delete", "delete failed", err)
		}
	}
	return nil
}

func (s *PineconeStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	resp, err := s.idx.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          query,
		TopK:            uint32(k),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, ragerr.NewVectorStoreError("pinecone", "search", "query failed", err)
	}

	hits := make([]Hit, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Vector.Score < s.cfg.Threshold {
			continue
		}
		meta := map[string]string{}
		content := ""
		if m.Vector.Metadata != nil {
			for k, v := range m.Vector.Metadata.AsMap() {
				if k == "content" {
					content = fmt.Sprintf("%v", v)
					continue
				}
				meta[k] = fmt.Sprintf("%v", v)
			}
		}
		hits = append(hits, Hit{ID: m.Vector.Id, Content: content, Score: m.Vector.Score, Metadata: meta})
	}
	return hits, nil
}

func (s *PineconeStore) Clear(ctx context.Context) error {
	if err := s.idx.DeleteAllVectorsInNamespace(ctx); err != nil {
		return ragerr.NewVectorStoreError("pinecone", "clear", "delete all failed", err)
	}
	return nil
}

func (s *PineconeStore) Count(ctx context.Context) (int, error) {
	stats, err := s.idx.DescribeIndexStats(ctx)
	if err != nil {
		return 0, ragerr.NewVectorStoreError("pinecone", "count", "describe stats failed", err)
	}
	return int(stats.TotalVectorCount), nil
}

func (s *PineconeStore) TestConnection(ctx context.Context) bool {
	_, err := s.client.DescribeIndex(ctx, s.cfg.IndexName)
	return err == nil
}
