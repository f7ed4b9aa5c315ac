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

package rag

import "github.com/ragforge/ragengine/pkg/vectorstore"

// filterByScore keeps hits at or above minScore, preserving rank order.
func filterByScore(hits []vectorstore.Hit, minScore float32) []vectorstore.Hit {
	out := make([]vectorstore.Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= minScore {
			out = append(out, h)
		}
	}
	return out
}

// assembleContext builds the list of context blocks sent to the language
// model: hits are appended verbatim in rank order while the running
// character total stays within contextWindow. A hit that would overflow is
// appended as a truncated, ellipsis-terminated prefix only if the
// remaining budget exceeds 100 characters; otherwise assembly stops there.
func assembleContext(hits []vectorstore.Hit, contextWindow int) []string {
	blocks := make([]string, 0, len(hits))
	used := 0
	for _, h := range hits {
		remaining := contextWindow - used
		if remaining <= 0 {
			break
		}
		if len(h.Content) <= remaining {
			blocks = append(blocks, h.Content)
			used += len(h.Content)
			continue
		}
		if remaining > 100 {
			truncated := h.Content[:remaining-3] + "..."
			blocks = append(blocks, truncated)
			used += len(truncated)
		}
		break
	}
	return blocks
}
