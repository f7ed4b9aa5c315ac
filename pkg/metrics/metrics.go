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

// Package metrics exposes the Prometheus collectors for the ingestion and
// query pipelines. Scoped down from a general agent-observability surface
// to just the RAG-relevant subsystems.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ragengine"

// Metrics groups the collectors for the ingest and query subsystems. A nil
// *Metrics is valid and every method on it is a no-op, so callers do not
// need to guard every call site when metrics are disabled.
type Metrics struct {
	registry       *prometheus.Registry
	docsIndexed    *prometheus.CounterVec
	docsErrored    *prometheus.CounterVec
	indexDuration  *prometheus.HistogramVec
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	searchResults  prometheus.Histogram
	embedCalls     *prometheus.CounterVec
	embedTokens    *prometheus.CounterVec
	llmCalls       *prometheus.CounterVec
	llmTokens      *prometheus.CounterVec
}

// Config controls whether metrics are registered at all.
type Config struct {
	Enabled  bool
	Registry *prometheus.Registry
}

// New builds a Metrics instance, or returns (nil, nil) when disabled.
func New(cfg Config) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		docsIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "documents_indexed_total",
			Help: "Documents that reached the Indexed status.",
		}, []string{"owner"}),
		docsErrored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "documents_errored_total",
			Help: "Documents that reached the Error status.",
		}, []string{"owner", "stage"}),
		indexDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "document_duration_seconds",
			Help:    "Time to fully process one document.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"owner"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rag", Name: "queries_total",
			Help: "RAG queries served.",
		}, []string{"owner", "mode"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "rag", Name: "query_duration_seconds",
			Help:    "End-to-end query latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "rag", Name: "query_sources",
			Help:    "Number of sources returned per query after score filtering.",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
		embedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "embed", Name: "calls_total",
			Help: "Embedding provider calls.",
		}, []string{"provider", "outcome"}),
		embedTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "embed", Name: "tokens_total",
			Help: "Tokens reported by embedding provider usage.",
		}, []string{"provider"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "llm", Name: "calls_total",
			Help: "Chat provider calls.",
		}, []string{"provider", "outcome"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "llm", Name: "tokens_total",
			Help: "Tokens reported by chat provider usage.",
		}, []string{"provider", "kind"}),
	}

	collectors := []prometheus.Collector{
		m.docsIndexed, m.docsErrored, m.indexDuration,
		m.searches, m.searchDuration, m.searchResults,
		m.embedCalls, m.embedTokens, m.llmCalls, m.llmTokens,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registered collectors in the Prometheus exposition
// format. Returns nil when metrics are disabled, so callers only mount the
// route if this is non-nil.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentIndexed(owner string) {
	if m == nil {
		return
	}
	m.docsIndexed.WithLabelValues(owner).Inc()
}

func (m *Metrics) DocumentErrored(owner, stage string) {
	if m == nil {
		return
	}
	m.docsErrored.WithLabelValues(owner, stage).Inc()
}

func (m *Metrics) ObserveIndexDuration(owner string, seconds float64) {
	if m == nil {
		return
	}
	m.indexDuration.WithLabelValues(owner).Observe(seconds)
}

func (m *Metrics) QueryServed(owner, mode string, durationSeconds float64, sources int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(owner, mode).Inc()
	m.searchDuration.Observe(durationSeconds)
	m.searchResults.Observe(float64(sources))
}

func (m *Metrics) EmbedCall(provider, outcome string, tokens int) {
	if m == nil {
		return
	}
	m.embedCalls.WithLabelValues(provider, outcome).Inc()
	if tokens > 0 {
		m.embedTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

func (m *Metrics) LLMCall(provider, outcome string, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
	if promptTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	}
}
