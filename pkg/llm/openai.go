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
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ragforge/ragengine/pkg/ragerr"
)

// OpenAIConfig configures the OpenAI chat provider. Setting Azure fields
// (Endpoint, DeploymentName, APIVersion) switches the same provider onto
// Azure OpenAI's API shape via go-openai's Azure client config, so the
// azure-openai configuration kind does not need a second hand-rolled
// client.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Endpoint       string
	DeploymentName string
	APIVersion     string
	Params         Params
}

func (c *OpenAIConfig) setDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	c.Params.setDefaults()
}

func (c OpenAIConfig) isAzure() bool { return c.Endpoint != "" }

var _ Provider = (*OpenAIProvider)(nil)

// OpenAIProvider serves both the "openai" and "azure-openai" configuration
// kinds via the official SDK.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: openai provider requires an API key")
	}
	cfg.setDefaults()

	var clientCfg openai.ClientConfig
	if cfg.isAzure() {
		if cfg.DeploymentName == "" {
			return nil, errors.New("llm: azure-openai config requires deploymentName")
		}
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		clientCfg.AzureModelMapperFunc = func(model string) string { return cfg.DeploymentName }
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

func (p *OpenAIProvider) buildRequest(messages []Message, contextBlocks []string, stream bool) openai.ChatCompletionRequest {
	withSystem := WithSystemPrompt(messages, contextBlocks)
	chatMessages := make([]openai.ChatCompletionMessage, len(withSystem))
	for i, m := range withSystem {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    chatMessages,
		Temperature: float32(p.cfg.Params.Temperature),
		TopP:        float32(p.cfg.Params.TopP),
		MaxTokens:   p.cfg.Params.MaxTokens,
		Stop:        p.cfg.Params.Stop,
		Stream:      stream,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, contextBlocks []string) (Result, error) {
	req := p.buildRequest(messages, contextBlocks, false)
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, ragerr.NewLLMError("openai", p.cfg.Model, "CreateChatCompletion failed", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, ragerr.NewLLMError("openai", p.cfg.Model, "no choices returned", nil)
	}
	choice := resp.Choices[0]
	return Result{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, messages []Message, contextBlocks []string) (<-chan StreamFrame, error) {
	req := p.buildRequest(messages, contextBlocks, true)
	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, ragerr.NewLLMError("openai", p.cfg.Model, "CreateChatCompletionStream failed", err)
	}

	out := make(chan StreamFrame)
	go func() {
		defer close(out)
		defer stream.Close()

		var totalTokens int
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				out <- StreamFrame{Done: true, Usage: Usage{TotalTokens: totalTokens}}
				return
			}
			if err != nil {
				out <- StreamFrame{Err: ragerr.NewLLMError("openai", p.cfg.Model, "stream recv failed", err), Done: true}
				return
			}
			if resp.Usage != nil {
				totalTokens = resp.Usage.TotalTokens
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta != "" {
				select {
				case out <- StreamFrame{Content: delta}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *OpenAIProvider) TestConnection(ctx context.Context) bool {
	_, err := p.Chat(ctx, []Message{{Role: "user", Content: "ping"}}, nil)
	return err == nil
}
