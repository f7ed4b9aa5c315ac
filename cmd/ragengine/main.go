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

// Command ragengine is the process entrypoint for the RAG ingestion and
// retrieval engine.
//
// Usage:
//
//	ragengine serve --port 8080
//	ragengine serve --uploads-dir ./data/uploads --observe
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ragforge/ragengine/pkg/config"
	"github.com/ragforge/ragengine/pkg/docstore"
	"github.com/ragforge/ragengine/pkg/extract"
	"github.com/ragforge/ragengine/pkg/httpapi"
	"github.com/ragforge/ragengine/pkg/metrics"
	"github.com/ragforge/ragengine/pkg/observability"
)

// defaultOwner matches httpapi's single-user scope; the spec's Non-goals
// exclude multi-tenant isolation.
const defaultOwner = "default"

// CLI defines the command-line interface.
type CLI struct {
	Serve ServeCmd `cmd:"" help:"Start the RAG engine HTTP server."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

// ServeCmd starts the HTTP server with the engine wired behind it.
type ServeCmd struct {
	Port            int    `help:"Port to listen on." default:"8080"`
	ConfigPath      string `name:"config-path" help:"YAML file configurations are mirrored to." type:"path" default:"./data/configurations.yaml"`
	UploadsDir      string `name:"uploads-dir" help:"Directory uploaded files are stored under." type:"path" default:"./data/uploads"`
	Observe         bool   `help:"Enable Prometheus metrics and OTLP tracing."`
	OTLPEndpoint    string `name:"otlp-endpoint" help:"OTLP gRPC collector endpoint." default:"localhost:4317"`
	DisableOCR      bool   `name:"disable-ocr" help:"Disable the OCR fallback for scanned PDFs (requires pdftoppm/tesseract otherwise)."`
	PdftoppmPath    string `name:"pdftoppm-path" help:"Path to the pdftoppm binary." default:"pdftoppm"`
	TesseractPath   string `name:"tesseract-path" help:"Path to the tesseract binary." default:"tesseract"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	if err := config.LoadEnvFiles(); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	tp, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:     c.Observe,
		EndpointURL: c.OTLPEndpoint,
		ServiceName: "ragengine",
	})
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}
	if shutdowner, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		defer func() { _ = shutdowner.Shutdown(context.Background()) }()
	}

	m, err := metrics.New(metrics.Config{Enabled: c.Observe})
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	var ocr *extract.OCRConfig
	if !c.DisableOCR {
		ocr = &extract.OCRConfig{
			PdftoppmPath:  c.PdftoppmPath,
			TesseractPath: c.TesseractPath,
			Enhance:       true,
		}
	}

	registry := docstore.NewMemoryRegistry()
	coordinator := config.New(c.ConfigPath, registry, m, ocr)

	if created, ok, err := coordinator.Bootstrap(ctx, defaultOwner); err != nil {
		slog.Warn("default configuration bootstrap failed", "error", err)
	} else if ok {
		slog.Info("bootstrapped default configuration", "id", created.ID)
	}

	srv := httpapi.New(coordinator, registry, c.UploadsDir, ocr, m)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("ragengine listening on http://localhost:%d\n", c.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("ragengine"),
		kong.Description("ragengine - retrieval-augmented generation ingestion and query engine"),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cli.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}
