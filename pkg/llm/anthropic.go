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

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ragforge/ragengine/pkg/httpx"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// AnthropicConfig configures the Anthropic chat provider. There is no
// official Anthropic Go SDK in this codebase's dependency graph, so this
// client is hand-rolled HTTP/SSE, matching the style of the other
// non-SDK-backed provider clients.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Params  Params
}

func (c *AnthropicConfig) setDefaults() {
	if c.Model == "" {
		c.Model = "claude-3-5-sonnet-20241022"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.anthropic.com"
	}
	c.Params.setDefaults()
}

var _ Provider = (*AnthropicProvider)(nil)

type AnthropicProvider struct {
	client *httpx.Client
	cfg    AnthropicConfig
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: anthropic provider requires an API key")
	}
	cfg.setDefaults()
	return &AnthropicProvider{client: httpx.New(), cfg: cfg}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
	StopSeqs    []string           `json:"stop_sequences,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildRequest puts the prompt synthesized from contextBlocks in the
// Anthropic system field and the user/assistant turns in the message array;
// "system"-role entries in messages are dropped, since Anthropic does not
// accept a "system" role inside the messages array.
func (p *AnthropicProvider) buildRequest(messages []Message, contextBlocks []string, stream bool) anthropicRequest {
	system := SystemPrompt(contextBlocks)
	turns := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			continue
		}
		turns = append(turns, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	return anthropicRequest{
		Model:       p.cfg.Model,
		Messages:    turns,
		System:      system,
		MaxTokens:   p.cfg.Params.MaxTokens,
		Temperature: p.cfg.Params.Temperature,
		TopP:        p.cfg.Params.TopP,
		StopSeqs:    p.cfg.Params.Stop,
		Stream:      stream,
	}
}

func (p *AnthropicProvider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, contextBlocks []string) (Result, error) {
	reqBody := p.buildRequest(messages, contextBlocks, false)
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, ragerr.NewLLMError("anthropic", p.cfg.Model, "failed to marshal request", err)
	}
	httpReq, err := p.newRequest(ctx, body)
	if err != nil {
		return Result{}, ragerr.NewLLMError("anthropic", p.cfg.Model, "failed to build request", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, ragerr.NewLLMError("anthropic", p.cfg.Model, "request failed", err)
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, ragerr.NewLLMError("anthropic", p.cfg.Model, "failed to decode response", err)
	}
	if parsed.Error != nil {
		return Result{}, ragerr.NewLLMError("anthropic", p.cfg.Model, parsed.Error.Message, nil)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return Result{
		Content:      text,
		Model:        parsed.Model,
		FinishReason: parsed.StopReason,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}

// sseEvent is the minimal shape read off an Anthropic streaming response:
// content_block_delta carries text, message_delta/message_stop carry usage.
type sseEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *anthropicUsage `json:"usage,omitempty"`
}

func (p *AnthropicProvider) ChatStream(ctx context.Context, messages []Message, contextBlocks []string) (<-chan StreamFrame, error) {
	reqBody := p.buildRequest(messages, contextBlocks, true)
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, ragerr.NewLLMError("anthropic", p.cfg.Model, "failed to marshal request", err)
	}
	httpReq, err := p.newRequest(ctx, body)
	if err != nil {
		return nil, ragerr.NewLLMError("anthropic", p.cfg.Model, "failed to build request", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, ragerr.NewLLMError("anthropic", p.cfg.Model, "request failed", err)
	}

	out := make(chan StreamFrame)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		var totalTokens int
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !bytes.HasPrefix([]byte(line), []byte("data: ")) {
				continue
			}
			data := line[len("data: "):]

			var evt sseEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				continue
			}
			if evt.Usage != nil {
				totalTokens = evt.Usage.InputTokens + evt.Usage.OutputTokens
			}
			switch evt.Type {
			case "content_block_delta":
				if evt.Delta.Text != "" {
					select {
					case out <- StreamFrame{Content: evt.Delta.Text}:
					case <-ctx.Done():
						return
					}
				}
			case "message_stop":
				out <- StreamFrame{Done: true, Usage: Usage{TotalTokens: totalTokens}}
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
			out <- StreamFrame{Err: ragerr.NewLLMError("anthropic", p.cfg.Model, "stream read failed", err), Done: true}
			return
		}
		out <- StreamFrame{Done: true, Usage: Usage{TotalTokens: totalTokens}}
	}()
	return out, nil
}

func (p *AnthropicProvider) TestConnection(ctx context.Context) bool {
	_, err := p.Chat(ctx, []Message{{Role: "user", Content: "ping"}}, nil)
	return err == nil
}
