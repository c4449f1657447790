// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the PaperLens
// conversational paper engine: paper references, resolved sources,
// text chunks, and stage configuration.
package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// PaperReference identifies a paper as supplied by the caller on every
// request. It is ephemeral; the engine never persists it as-is.
type PaperReference struct {
	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors is the comma-separated author list as reported by the
	// search backend.
	Authors string `json:"authors" yaml:"authors"`

	// Year is the publication year, if known.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Abstract is the paper abstract. When no full text is reachable it
	// becomes the grounding text for the paper.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// SourceURL is the canonical URL for the paper. It is the sole input
	// to PaperID derivation.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFURL is a direct PDF link, when the caller already has one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// ExternalIDs carries identifiers from the search backend, keyed by
	// scheme (e.g. "DOI", "ArXiv").
	ExternalIDs map[string]string `json:"external_ids,omitempty" yaml:"external_ids,omitempty"`
}

// PaperID derives the stable identifier for a source URL: the first 12
// hex characters of its SHA-256 digest. The same URL always yields the
// same id, across processes and restarts.
func PaperID(sourceURL string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(sourceURL)))
	return fmt.Sprintf("%x", h)[:12]
}

// ID returns the PaperID for the reference's source URL.
func (r PaperReference) ID() string {
	return PaperID(r.SourceURL)
}

// MetadataText builds the synthetic grounding text used when only
// title and abstract are available.
func (r PaperReference) MetadataText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s", r.Title)
	if r.Abstract != "" {
		fmt.Fprintf(&b, "\n\nAbstract: %s", r.Abstract)
	}
	if r.Authors != "" {
		fmt.Fprintf(&b, "\n\nAuthors: %s", r.Authors)
	}
	return b.String()
}

// SourceType classifies how a paper's grounding text was obtained.
type SourceType string

const (
	// SourcePDFPrimary means the caller-supplied URL yielded extractable
	// full text directly.
	SourcePDFPrimary SourceType = "full_text_pdf_primary"

	// SourcePDFSecondary means a fallback repository (Semantic Scholar
	// open-access link or arXiv) supplied the full text.
	SourcePDFSecondary SourceType = "full_text_pdf_secondary"

	// SourceMetadataOnly means no full text was reachable and the
	// title+abstract text is the only grounding.
	SourceMetadataOnly SourceType = "metadata_only"

	// SourceUnavailable means there was neither a usable URL nor an
	// abstract. Answers fall back to general knowledge with a disclaimer.
	SourceUnavailable SourceType = "unavailable"
)

// FullText reports whether the source carries extracted paper text.
func (t SourceType) FullText() bool {
	return t == SourcePDFPrimary || t == SourcePDFSecondary
}

// SourceRecord is the outcome of source resolution for one paper.
type SourceRecord struct {
	// PaperID is the stable id derived from the reference's source URL.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Type records which source succeeded, or the degraded fallback.
	Type SourceType `json:"source_type" yaml:"source_type"`

	// RawText is the grounding text. Empty only for SourceUnavailable.
	RawText string `json:"-" yaml:"-"`

	// Reference is the caller-supplied reference the record was built from.
	Reference PaperReference `json:"reference" yaml:"reference"`
}

// Chunk is a bounded, overlap-preserving slice of a paper's grounding
// text, the unit of retrieval. Chunks are immutable once created.
type Chunk struct {
	// PaperID identifies the owning paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Index is the zero-based position of the chunk within the paper.
	Index int `json:"index" yaml:"index"`

	// Text is the chunk content.
	Text string `json:"text" yaml:"text"`

	// Start and End delimit the chunk within the source text, in bytes.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}
