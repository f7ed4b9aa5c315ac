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

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ragforge/ragengine/pkg/lang"
)

// OCRConfig configures the external sidecar binaries used for the OCR
// fallback. Swapping either binary never changes the observable contract
// (OCR output replaces original text only if longer, and OCR failures are
// non-fatal).
type OCRConfig struct {
	// PdftoppmPath is the poppler-utils binary used to rasterize PDF pages.
	PdftoppmPath string
	// TesseractPath is the OCR engine binary.
	TesseractPath string
	// DPI is the rasterization resolution; spec default is 300.
	DPI int
	// Enhance applies resampling/contrast adjustment before recognition.
	Enhance bool
	// WorkDir is used for intermediate page images; defaults to os.TempDir.
	WorkDir string
}

func (c *OCRConfig) setDefaults() {
	if c.PdftoppmPath == "" {
		c.PdftoppmPath = "pdftoppm"
	}
	if c.TesseractPath == "" {
		c.TesseractPath = "tesseract"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
}

// maxParallelOCRPages bounds the number of pages enhanced and recognized
// concurrently; rasterization is a single pdftoppm run over the whole file.
const maxParallelOCRPages = 5

// rasterizePages runs pdftoppm over path into a fresh temp directory and
// returns the page-image filename prefix plus a cleanup func the caller
// must defer. Shared by runOCR and Diagnose so both rasterize identically.
func rasterizePages(ctx context.Context, cfg OCRConfig, path string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp(cfg.WorkDir, "ragengine-ocr-*")
	if err != nil {
		return "", nil, fmt.Errorf("ocr: create work dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, cfg.PdftoppmPath,
		"-r", strconv.Itoa(cfg.DPI), "-png", path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("ocr: pdftoppm failed: %w (%s)", err, string(out))
	}
	return prefix, cleanup, nil
}

// runOCR rasterizes every page of the PDF at path and runs tesseract over
// each page image, with at most maxParallelOCRPages pages in flight. Errors for individual
// pages are swallowed (the page contributes empty text); only a failure to
// invoke the rasterizer at all is returned to the caller.
func (e *Extractor) runOCR(ctx context.Context, path string, totalPages int) (string, error) {
	cfg := *e.OCR
	cfg.setDefaults()

	prefix, cleanup, err := rasterizePages(ctx, cfg, path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	pages := make([]string, totalPages+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelOCRPages)

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		pageNum := pageNum
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			imgPath := findPageImage(prefix, pageNum)
			if imgPath == "" {
				return nil
			}
			if cfg.Enhance {
				if err := enhanceImage(imgPath); err != nil {
					// Enhancement failure is non-fatal: OCR the original image.
					_ = err
				}
			}
			text, err := ocrImage(gctx, cfg.TesseractPath, imgPath)
			if err != nil {
				return nil
			}
			pages[pageNum] = postProcessOCR(text)
			return nil
		})
	}
	_ = g.Wait()

	var nonEmpty []string
	for i := 1; i <= totalPages; i++ {
		if strings.TrimSpace(pages[i]) != "" {
			nonEmpty = append(nonEmpty, pages[i])
		}
	}
	return strings.Join(nonEmpty, "\n\n"), nil
}

// findPageImage locates the page image pdftoppm produced; it pads page
// numbers with zeros when the document has more than 9 (or 99) pages.
func findPageImage(prefix string, pageNum int) string {
	for _, width := range []int{2, 3, 4, 1} {
		candidate := fmt.Sprintf("%s-%0*d.png", prefix, width, pageNum)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func ocrImage(ctx context.Context, tesseractPath, imgPath string) (string, error) {
	cmd := exec.CommandContext(ctx, tesseractPath, imgPath, "stdout",
		"-l", lang.TesseractPack, "--psm", "6")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ocr: tesseract failed: %w", err)
	}
	return stdout.String(), nil
}

var (
	ocrArtifactRun = regexp.MustCompile(`[_\-=]{4,}`)
	ocrSpaceRun    = regexp.MustCompile(` {2,}`)
	ocrEllipsis    = regexp.MustCompile(`\.{3,}`)
	ocrPunctSpace  = regexp.MustCompile(`\s+([,.;:!?])`)
)

// postProcessOCR collapses whitespace, strips long artifact runs, normalizes
// ellipses, and fixes spacing before punctuation.
func postProcessOCR(text string) string {
	text = ocrArtifactRun.ReplaceAllString(text, "")
	text = ocrSpaceRun.ReplaceAllString(text, " ")
	text = ocrEllipsis.ReplaceAllString(text, "...")
	text = ocrPunctSpace.ReplaceAllString(text, "$1")
	return collapseLines(text)
}
