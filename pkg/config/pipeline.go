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
	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/ingest"
	"github.com/ragforge/ragengine/pkg/metrics"
	"github.com/ragforge/ragengine/pkg/rag"
)

// ActivePipeline bundles the C7 and C9 pipelines bound to one active
// Configuration. Both share the same live provider instances.
type ActivePipeline struct {
	ConfigID string
	RAG      *rag.Pipeline
	Ingest   *ingest.Pipeline
}

// buildActivePipeline wires the C1/C4/C5/C6 instances bound to cfg into
// the ingest and query pipelines that use them, sharing one registry and
// one metrics sink across both. ocr is nil when the process has no OCR
// fallback configured, in which case extraction of an image-only PDF
// yields empty text rather than running tesseract.
func buildActivePipeline(cfg Configuration, p providers, registry docstore.Registry, m *metrics.Metrics, ocr *extract.OCRConfig) *ActivePipeline {
	ingestPipeline := ingest.New(extract.New(ocr), p.embedder, p.vector, registry)
	ingestPipeline.Owner = cfg.Owner
	ingestPipeline.Metrics = m

	ragPipeline := rag.New(p.embedder, p.vector, p.llm)
	ragPipeline.Owner = cfg.Owner
	ragPipeline.Metrics = m
	if cfg.TopK > 0 {
		ragPipeline.MaxSources = cfg.TopK
	}

	return &ActivePipeline{ConfigID: cfg.ID, RAG: ragPipeline, Ingest: ingestPipeline}
}
