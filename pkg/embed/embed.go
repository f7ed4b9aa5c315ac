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

// Package embed abstracts over embedding providers behind one Provider
// interface, with batching, pacing, and usage accounting handled once at
// this layer so every backend gets it for free.
package embed

import (
	"context"
	"fmt"
	"time"
)

// Usage reports token accounting from a provider call, when the backend
// supplies it.
type Usage struct {
	PromptTokens int
	TotalTokens  int
}

// Result is the output of EmbedMany: one vector per input text, in order.
type Result struct {
	Vectors [][]float32
	Usage   Usage
	Model   string
}

// Provider is the abstract embedding backend contract. All vectors returned
// by one Provider share a fixed dimension.
type Provider interface {
	EmbedMany(ctx context.Context, texts []string) (Result, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	TestConnection(ctx context.Context) bool
}

// maxBatchSize is the largest sub-batch sent to a backend in one request;
// EmbedMany partitions larger inputs into sub-batches of this size.
const maxBatchSize = 20

// interBatchPacing is the delay observed between sub-batch calls to avoid
// tripping provider rate limits on large documents.
const interBatchPacing = 100 * time.Millisecond

// batchAndPace runs call over texts in sub-batches of maxBatchSize,
// pacing between calls, and concatenates the results while summing usage.
// It is shared by every Provider implementation's EmbedMany.
func batchAndPace(ctx context.Context, texts []string, model string, call func(ctx context.Context, batch []string) ([][]float32, Usage, error)) (Result, error) {
	if len(texts) == 0 {
		return Result{Model: model}, nil
	}

	var vectors [][]float32
	var usage Usage

	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(interBatchPacing):
			}
		}

		batchVectors, batchUsage, err := call(ctx, texts[i:end])
		if err != nil {
			return Result{}, fmt.Errorf("embed: batch [%d:%d] failed: %w", i, end, err)
		}
		vectors = append(vectors, batchVectors...)
		usage.PromptTokens += batchUsage.PromptTokens
		usage.TotalTokens += batchUsage.TotalTokens
	}

	return Result{Vectors: vectors, Usage: usage, Model: model}, nil
}
