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

// Package rag implements the query-time pipeline: embed the question,
// search the vector index, filter and assemble retrieved context, and
// prompt the language-model provider for a grounded answer, unary or
// streamed.
package rag

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ragforge/ragengine/pkg/embed"
	"github.com/ragforge/ragengine/pkg/llm"
	"github.com/ragforge/ragengine/pkg/metrics"
	"github.com/ragforge/ragengine/pkg/ragerr"
	"github.com/ragforge/ragengine/pkg/vectorstore"
)

// tracer is the single span source this engine's query path needs,
// scaled down from a general per-request tracing middleware.
var tracer = otel.Tracer("ragengine/rag")

// Defaults for the retrieval and context-assembly policy.
const (
	DefaultMaxSources    = 5
	DefaultMinScore      = float32(0.5)
	DefaultContextWindow = 4000
)

// Result is the output of a unary Query.
type Result struct {
	Content string
	Sources []vectorstore.Hit
	Usage   llm.Usage
}

// FrameType tags one element of a QueryStream sequence.
type FrameType string

const (
	FrameSources FrameType = "sources"
	FrameContent FrameType = "content"
	FrameDone    FrameType = "done"
	FrameError   FrameType = "error"
)

// Frame is one element of a QueryStream sequence. Exactly one Sources
// frame precedes any Content frames, and exactly one Done/Error frame
// terminates the sequence.
type Frame struct {
	Type    FrameType
	Sources []vectorstore.Hit
	Content string
	Usage   llm.Usage
	Err     error
}

// Pipeline binds the C4/C5/C6 instances active for one configuration and
// answers queries against them. Owner and Metrics are optional.
type Pipeline struct {
	Embedder      embed.Provider
	VectorDB      vectorstore.Provider
	LLM           llm.Provider
	MaxSources    int
	MinScore      float32
	ContextWindow int
	Owner         string
	Metrics       *metrics.Metrics
}

// New builds a Pipeline with the default retrieval policy.
func New(embedder embed.Provider, vectorDB vectorstore.Provider, llmProvider llm.Provider) *Pipeline {
	return &Pipeline{
		Embedder:      embedder,
		VectorDB:      vectorDB,
		LLM:           llmProvider,
		MaxSources:    DefaultMaxSources,
		MinScore:      DefaultMinScore,
		ContextWindow: DefaultContextWindow,
	}
}

func (p *Pipeline) setDefaults() {
	if p.MaxSources <= 0 {
		p.MaxSources = DefaultMaxSources
	}
	if p.MinScore == 0 {
		p.MinScore = DefaultMinScore
	}
	if p.ContextWindow <= 0 {
		p.ContextWindow = DefaultContextWindow
	}
}

// retrieve runs the shared embed -> search -> filter -> assemble steps used
// by both Query and QueryStream.
func (p *Pipeline) retrieve(ctx context.Context, question string) ([]vectorstore.Hit, []string, error) {
	p.setDefaults()

	vector, err := p.Embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, nil, ragerr.NewEmbeddingError("", "", "failed to embed question", err)
	}

	hits, err := p.VectorDB.Search(ctx, vector, p.MaxSources)
	if err != nil {
		return nil, nil, ragerr.NewVectorStoreError("", "search", "query search failed", err)
	}

	filtered := filterByScore(hits, p.MinScore)
	contextBlocks := assembleContext(filtered, p.ContextWindow)
	return filtered, contextBlocks, nil
}

func buildMessages(history []llm.Message, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})
	return messages
}

// Query answers question unary: embed, search, filter, assemble context,
// then a single chat completion call.
func (p *Pipeline) Query(ctx context.Context, question string, history []llm.Message) (Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "rag.query", trace.WithAttributes(
		attribute.String("rag.owner", p.Owner),
		attribute.Bool("rag.streaming", false),
	))
	defer span.End()

	sources, contextBlocks, err := p.retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	messages := buildMessages(history, question)
	res, err := p.LLM.Chat(ctx, messages, contextBlocks)
	if err != nil {
		span.RecordError(err)
		p.Metrics.LLMCall("", "error", 0, 0)
		return Result{}, ragerr.NewLLMError("", "", "chat completion failed", err)
	}

	span.SetAttributes(attribute.Int("rag.sources", len(sources)))
	p.Metrics.LLMCall(res.Model, "ok", res.Usage.PromptTokens, res.Usage.CompletionTokens)
	p.Metrics.QueryServed(p.Owner, "unary", time.Since(start).Seconds(), len(sources))

	return Result{Content: res.Content, Sources: sources, Usage: res.Usage}, nil
}

// QueryStream answers question as a sequence of frames: exactly one
// Sources frame, zero or more Content frames, then exactly one terminal
// Done or Error frame.
func (p *Pipeline) QueryStream(ctx context.Context, question string, history []llm.Message) (<-chan Frame, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "rag.query", trace.WithAttributes(
		attribute.String("rag.owner", p.Owner),
		attribute.Bool("rag.streaming", true),
	))

	sources, contextBlocks, err := p.retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}

	messages := buildMessages(history, question)
	upstream, err := p.LLM.ChatStream(ctx, messages, contextBlocks)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, ragerr.NewLLMError("", "", "chat stream failed", err)
	}

	out := make(chan Frame, 1)
	out <- Frame{Type: FrameSources, Sources: sources}

	go func() {
		defer close(out)
		defer span.End()
		defer func() {
			p.Metrics.QueryServed(p.Owner, "stream", time.Since(start).Seconds(), len(sources))
		}()

		for frame := range upstream {
			if frame.Err != nil {
				span.RecordError(frame.Err)
				select {
				case out <- Frame{Type: FrameError, Err: frame.Err}:
				case <-ctx.Done():
				}
				return
			}
			if frame.Done {
				span.SetAttributes(attribute.Int("rag.sources", len(sources)))
				select {
				case out <- Frame{Type: FrameDone, Usage: frame.Usage}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- Frame{Type: FrameContent, Content: frame.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
