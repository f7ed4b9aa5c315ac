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

// Package httpx provides an HTTP client with retry and exponential backoff,
// used by the hand-rolled provider clients (Anthropic, Cohere, Ollama,
// Chroma) that have no official Go SDK.
package httpx

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryStrategy describes how a failed response should be retried.
type RetryStrategy int

const (
	NoRetry RetryStrategy = iota
	ConservativeRetry
	SmartRetry
)

// StrategyFunc maps a status code to a retry strategy.
type StrategyFunc func(statusCode int) RetryStrategy

// Client wraps http.Client with retry and backoff.
type Client struct {
	http         *http.Client
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	strategyFunc StrategyFunc
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }
func WithMaxRetries(n int) Option          { return func(cl *Client) { cl.maxRetries = n } }
func WithBaseDelay(d time.Duration) Option { return func(cl *Client) { cl.baseDelay = d } }
func WithMaxDelay(d time.Duration) Option  { return func(cl *Client) { cl.maxDelay = d } }
func WithStrategy(f StrategyFunc) Option   { return func(cl *Client) { cl.strategyFunc = f } }

func New(opts ...Option) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 60 * time.Second},
		maxRetries:   3,
		baseDelay:    1 * time.Second,
		maxDelay:     20 * time.Second,
		strategyFunc: DefaultStrategy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultStrategy retries 429/503 with backoff honoring Retry-After, and
// retries 408/500/502/504 conservatively; everything else is not retried.
func DefaultStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return SmartRetry
	case http.StatusRequestTimeout, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Do executes req, retrying transient failures per the configured strategy.
// The request body, if any, is buffered so it can be replayed on retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("httpx: read request body: %w", err)
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt >= c.maxRetries {
				break
			}
			time.Sleep(c.backoff(attempt))
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		strategy := c.strategyFunc(resp.StatusCode)
		lastResp = resp
		lastErr = fmt.Errorf("httpx: unexpected status %d", resp.StatusCode)

		if strategy == NoRetry || attempt >= c.maxRetries {
			return resp, lastErr
		}

		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		delay := c.backoff(attempt)
		if strategy == SmartRetry && retryAfter > 0 {
			delay = retryAfter
		}
		slog.Warn("httpx: retrying request", "status", resp.StatusCode, "attempt", attempt+1, "delay", delay)
		resp.Body.Close()
		time.Sleep(delay)
	}

	return lastResp, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
	if delay+jitter > c.maxDelay {
		return c.maxDelay
	}
	return delay + jitter
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs
	}
	return 0
}
