// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Extractor turns a PDF file into plain text. The production
// implementation shells out to pdftotext; tests substitute a fake.
type Extractor interface {
	// Extract reads the PDF at pdfPath and returns its text content.
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// PdftotextExtractor extracts text using the poppler pdftotext tool.
type PdftotextExtractor struct {
	// Binary overrides the pdftotext executable path. Empty uses $PATH.
	Binary string
}

// Extract runs pdftotext, writing text to stdout.
func (e *PdftotextExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	bin := e.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	cmd := exec.CommandContext(ctx, bin, pdfPath, "-")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, stderr.String())
	}
	return out.String(), nil
}
