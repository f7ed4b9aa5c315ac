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

	"github.com/qdrant/go-client/qdrant"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// QdrantConfig configures a remote Qdrant collection. Qdrant is not one of
// spec's three required remote backends; it is carried as a bonus variant
// behind the same Provider contract since the retrieval pack's providers
// module already depends on this client.
type QdrantConfig struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	CollectionName string
	Dimension      int
	Threshold      float32
}

func (c *QdrantConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.CollectionName == "" {
		c.CollectionName = "ragengine"
	}
}

var _ Provider = (*QdrantStore)(nil)

type QdrantStore struct {
	cfg    QdrantConfig
	client *qdrant.Client
}

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("vectorstore: qdrant config requires a host")
	}
	cfg.setDefaults()

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, ragerr.NewConfigurationError("qdrant", "vector", "failed to construct qdrant client", err)
	}
	return &QdrantStore{cfg: cfg, client: client}, nil
}

func (s *QdrantStore) Initialize(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.CollectionName)
	if err != nil {
		return ragerr.NewVectorStoreError("qdrant", "initialize", "failed to check collection", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.cfg.Dimension),
			Distance: qdrant.Distance_Dot,
		}),
	})
	if err != nil {
		return ragerr.NewVectorStoreError("qdrant", "initialize", "failed to create collection", err)
	}
	return nil
}

// upsertBatchSize bounds remote upserts to the spec's ≤100 records/request.
const upsertBatchSize = 100

func (s *QdrantStore) AddDocuments(ctx context.Context, records []Record) error {
	for i := 0; i < len(records); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		points := make([]*qdrant.PointStruct, 0, end-i)
		for _, r := range records[i:end] {
			payload := map[string]any{"content": r.Content}
			for k, v := range r.Metadata {
				payload[k] = v
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(r.ID),
				Vectors: qdrant.NewVectors(r.Embedding...),
				Payload: qdrant.NewValueMap(payload),
			})
		}
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.cfg.CollectionName,
			Points:         points,
		})
		if err != nil {
			return ragerr.NewVectorStoreError("qdrant", "addDocuments", "upsert failed", err)
		}
	}
	return nil
}

// deleteBatchSize bounds remote deletes to the spec's ≤1000 ids/request.
const deleteBatchSize = 1000

func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	for i := 0; i < len(ids); i += deleteBatchSize {
		end := i + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		pointIDs := make([]*qdrant.PointId, 0, end-i)
		for _, id := range ids[i:end] {
			pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
		}
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.cfg.CollectionName,
			Points:         qdrant.NewPointsSelector(pointIDs...),
		})
		if err != nil {
			return ragerr.NewVectorStoreError("qdrant", "delete", "delete failed", err)
		}
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.CollectionName,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, ragerr.NewVectorStoreError("qdrant", "search", "query failed", err)
	}

	hits := make([]Hit, 0, len(result))
	for _, p := range result {
		if p.Score < s.cfg.Threshold {
			continue
		}
		meta := make(map[string]string)
		content := ""
		for k, v := range p.Payload {
			if k == "content" {
				content = v.GetStringValue()
				continue
			}
			meta[k] = v.GetStringValue()
		}
		hits = append(hits, Hit{ID: p.Id.GetUuid(), Content: content, Score: p.Score, Metadata: meta})
	}
	return hits, nil
}

func (s *QdrantStore) Clear(ctx context.Context) error {
	_, err := s.client.DeleteCollection(ctx, s.cfg.CollectionName)
	if err != nil {
		return ragerr.NewVectorStoreError("qdrant", "clear", "delete collection failed", err)
	}
	return s.Initialize(ctx)
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.cfg.CollectionName)
	if err != nil {
		return 0, ragerr.NewVectorStoreError("qdrant", "count", "get collection info failed", err)
	}
	return int(info.GetPointsCount()), nil
}

func (s *QdrantStore) TestConnection(ctx context.Context) bool {
	_, err := s.client.HealthCheck(ctx)
	return err == nil
}
