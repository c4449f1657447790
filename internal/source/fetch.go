// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Rohith-gande/PaperLens-updated/internal/httputil"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

const defaultMinTextLength = 500

// Resolver fetches and extracts paper full text.
type Resolver struct {
	client    *http.Client
	extractor Extractor
	s2        *SemanticScholar
	cfg       types.SourceConfig
}

// NewResolver builds a Resolver. The Semantic Scholar fallback is only
// attached when the configuration enables it.
func NewResolver(client *http.Client, extractor Extractor, cfg types.SourceConfig) *Resolver {
	r := &Resolver{
		client:    client,
		extractor: extractor,
		cfg:       cfg,
	}
	if cfg.EnableSemanticScholar {
		r.s2 = &SemanticScholar{
			Client: client,
			APIKey: cfg.SemanticScholarAPIKey,
		}
	}
	return r
}

// isPDF reports whether data begins with the PDF magic bytes.
func isPDF(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("%PDF"))
}

// fetchText downloads a candidate URL and extracts its text. It fails
// when the response is not a PDF, extraction fails, or the extracted
// text is shorter than the configured minimum (scanned or image-only
// PDFs extract to almost nothing).
func (r *Resolver) fetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, r.client, req, r.cfg.MaxDownloadRetries)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading download: %w", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !isPDF(data) && !strings.Contains(contentType, "pdf") {
		return "", fmt.Errorf("non-PDF content (%s) from %s", contentType, rawURL)
	}

	text, err := r.extractText(ctx, data)
	if err != nil {
		return "", err
	}

	minLen := r.cfg.MinTextLength
	if minLen <= 0 {
		minLen = defaultMinTextLength
	}
	if len(text) < minLen {
		return "", fmt.Errorf("extracted only %d characters from %s", len(text), rawURL)
	}
	return text, nil
}

// extractText writes the PDF bytes to a temp file and runs the extractor.
func (r *Resolver) extractText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "paperlens-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	text, err := r.extractor.Extract(ctx, tmpPath)
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
