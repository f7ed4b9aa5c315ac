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
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ragforge/ragengine/pkg/lang"
	"github.com/ragforge/ragengine/pkg/ragerr"
)

// Diagnostics is the result of running the OCR fallback standalone against
// one file, for the web layer's connectivity/quality test endpoint.
type Diagnostics struct {
	TextLength       int
	PageConfidences  []float64 // mean tesseract word confidence per page, 0-100
	DetectedLanguage lang.Script
	TesseractVersion string
}

// Diagnose runs C1's OCR path against a single PDF unconditionally (it does
// not first check whether the native PDF text layer is already usable) and
// reports per-page recognition confidence alongside the recognized text's
// language and the tesseract binary version, for a standalone OCR health
// check. It requires OCR to be configured.
func (e *Extractor) Diagnose(ctx context.Context, path string) (Diagnostics, error) {
	if e.OCR == nil {
		return Diagnostics{}, ragerr.NewExtractionError("ocr", path, "OCR is not configured", nil)
	}
	cfg := *e.OCR
	cfg.setDefaults()

	totalPages, err := numPages(path)
	if err != nil {
		return Diagnostics{}, ragerr.NewExtractionError("ocr", path, "failed to read page count", err)
	}

	prefix, cleanup, err := rasterizePages(ctx, cfg, path)
	if err != nil {
		return Diagnostics{}, ragerr.NewExtractionError("ocr", path, "rasterization failed", err)
	}
	defer cleanup()

	texts := make([]string, totalPages+1)
	confidences := make([]float64, totalPages+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelOCRPages)

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		pageNum := pageNum
		g.Go(func() error {
			imgPath := findPageImage(prefix, pageNum)
			if imgPath == "" {
				return nil
			}
			if cfg.Enhance {
				_ = enhanceImage(imgPath)
			}
			text, conf, err := ocrImageWithConfidence(gctx, cfg.TesseractPath, imgPath)
			if err != nil {
				return nil
			}
			texts[pageNum] = postProcessOCR(text)
			confidences[pageNum] = conf
			return nil
		})
	}
	_ = g.Wait()

	joined := strings.Join(nonEmptyStrings(texts), "\n\n")
	version, _ := tesseractVersion(ctx, cfg.TesseractPath)

	return Diagnostics{
		TextLength:       len(joined),
		PageConfidences:  confidences[1:],
		DetectedLanguage: lang.Detect(joined),
		TesseractVersion: version,
	}, nil
}

func nonEmptyStrings(ss []string) []string {
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// ocrImageWithConfidence runs tesseract in TSV mode, which interleaves a
// per-word confidence column (-1 for non-word rows) alongside the
// recognized text, and reduces it to the page's plain text plus the mean
// confidence over real words.
func ocrImageWithConfidence(ctx context.Context, tesseractPath, imgPath string) (string, float64, error) {
	cmd := exec.CommandContext(ctx, tesseractPath, imgPath, "stdout",
		"-l", lang.TesseractPack, "--psm", "6", "tsv")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", 0, fmt.Errorf("ocr: tesseract tsv failed: %w", err)
	}
	text, conf := parseTSV(stdout.String())
	return text, conf, nil
}

// parseTSV reduces tesseract's --psm N tsv output (header row, then one row
// per detected region with columns level..text) to plain text and the mean
// confidence over word-level rows (conf >= 0).
func parseTSV(tsv string) (string, float64) {
	lines := strings.Split(tsv, "\n")
	if len(lines) < 2 {
		return "", 0
	}
	var words []string
	var confSum float64
	var confCount int
	for _, line := range lines[1:] {
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		words = append(words, text)
		confSum += conf
		confCount++
	}
	var mean float64
	if confCount > 0 {
		mean = confSum / float64(confCount)
	}
	return strings.Join(words, " "), mean
}

// tesseractVersion runs `tesseract --version` and returns its first line
// ("tesseract 5.3.4"), which every supported release prints.
func tesseractVersion(ctx context.Context, tesseractPath string) (string, error) {
	cmd := exec.CommandContext(ctx, tesseractPath, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	lines := strings.SplitN(string(out), "\n", 2)
	return strings.TrimSpace(lines[0]), nil
}
