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

// Package chunk splits extracted document text into overlapping, offset-
// addressable pieces suitable for independent embedding.
package chunk

import (
	"fmt"

	"github.com/ragforge/ragengine/pkg/lang"
)

// Strategy selects which Chunker implementation NewChunker builds.
type Strategy string

const (
	// Window is the sentence/paragraph-boundary sliding window strategy and
	// is the default for the ingest pipeline.
	Window Strategy = "window"
	// Line groups whole lines until the size budget is exceeded, for
	// already-structured text (code, logs) where character offsets matter
	// less than not splitting a line in half.
	Line Strategy = "line"
)

// Chunk is one piece of a larger document, with offsets into the original
// extracted text.
type Chunk struct {
	Content    string
	StartChar  int
	EndChar    int
	Language   lang.Script
}

// Config controls chunk size and overlap. Overlap must be smaller than Size.
type Config struct {
	Strategy Strategy
	Size     int
	Overlap  int
}

// DefaultConfig is the chunker's own default (window, size 800, overlap
// 100); the ingest pipeline's DefaultOptions use a larger chunk size.
func DefaultConfig() Config {
	return Config{Strategy: Window, Size: 800, Overlap: 100}
}

func (c *Config) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = Window
	}
	if c.Size <= 0 {
		c.Size = 800
	}
	if c.Overlap < 0 {
		c.Overlap = 100
	}
}

func (c Config) Validate() error {
	if c.Overlap >= c.Size {
		return fmt.Errorf("chunk: overlap (%d) must be smaller than size (%d)", c.Overlap, c.Size)
	}
	return nil
}

// Chunker splits a string into Chunks according to its Config.
type Chunker interface {
	Split(text string) []Chunk
	Strategy() Strategy
	Config() Config
}

// New builds a Chunker for cfg.Strategy, applying defaults first.
func New(cfg Config) (Chunker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case Window:
		return &windowChunker{cfg: cfg}, nil
	case Line:
		return &lineChunker{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("chunk: unknown strategy %q", cfg.Strategy)
	}
}
