// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source turns a caller-supplied paper reference into grounding
// text. It tries every configured full-text source in priority order
// and degrades to metadata-only (title+abstract) or unavailable when
// nothing is retrievable: resolution failures never abort a
// conversation.
package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// candidate is one full-text URL to try, with the source type it would
// establish on success.
type candidate struct {
	url  string
	kind types.SourceType
}

// NormalizePDFURL rewrites known landing-page URLs to direct PDF links:
// arXiv abstract pages, bare arXiv PDF paths, and OpenReview forum
// pages. URLs already ending in .pdf pass through. Returns "" when the
// URL cannot be turned into a PDF link locally; the caller may still
// try it as-is.
func NormalizePDFURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(u), ".pdf") {
		return u
	}

	if i := strings.Index(u, "arxiv.org/abs/"); i >= 0 {
		id := u[i+len("arxiv.org/abs/"):]
		id = strings.SplitN(id, "#", 2)[0]
		id = strings.SplitN(id, "?", 2)[0]
		return arxivPDFBase + id
	}

	if strings.Contains(u, "arxiv.org/pdf/") {
		return u + ".pdf"
	}

	if strings.Contains(u, "openreview.net/forum") {
		parsed, err := url.Parse(u)
		if err == nil {
			if id := parsed.Query().Get("id"); id != "" {
				return parsed.Scheme + "://" + parsed.Host + "/pdf?id=" + id
			}
		}
	}

	return ""
}

// candidates assembles the ordered full-text sources for a reference:
// the caller's direct PDF link (or a normalized form of the source
// URL), then the source URL itself, then an arXiv PDF built from the
// reference's external arXiv id. Duplicate URLs are dropped.
func (r *Resolver) candidates(ref types.PaperReference) []candidate {
	var out []candidate
	seen := make(map[string]bool)

	add := func(u string, kind types.SourceType) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, candidate{url: u, kind: kind})
	}

	add(ref.PDFURL, types.SourcePDFPrimary)
	add(NormalizePDFURL(ref.SourceURL), types.SourcePDFPrimary)
	if ref.SourceURL != "" {
		add(ref.SourceURL, types.SourcePDFPrimary)
	}

	if id := externalID(ref, "ArXiv"); id != "" {
		add(arxivPDFBase+id, types.SourcePDFSecondary)
	}

	return out
}

// externalID looks up an external identifier case-insensitively.
func externalID(ref types.PaperReference, scheme string) string {
	for k, v := range ref.ExternalIDs {
		if strings.EqualFold(k, scheme) && v != "" {
			return v
		}
	}
	return ""
}

// Resolve picks the best retrievable source for a reference. The first
// candidate that yields extractable text of sufficient length wins.
// When every attempt fails but the reference carries an abstract, the
// result is metadata-only with synthetic title+abstract grounding text.
// With neither full text nor abstract the result is unavailable; it is
// a degraded state, not an error.
func (r *Resolver) Resolve(ctx context.Context, ref types.PaperReference) types.SourceRecord {
	rec := types.SourceRecord{
		PaperID:   ref.ID(),
		Reference: ref,
	}

	for _, c := range r.candidates(ref) {
		text, err := r.fetchText(ctx, c.url)
		if err != nil {
			continue
		}
		rec.Type = c.kind
		rec.RawText = text
		return rec
	}

	// Semantic Scholar open-access lookup runs after the direct
	// candidates: it costs an extra API round trip.
	if r.s2 != nil {
		if oaURL, err := r.s2.OpenAccessPDF(ctx, ref); err == nil && oaURL != "" {
			if text, err := r.fetchText(ctx, oaURL); err == nil {
				rec.Type = types.SourcePDFSecondary
				rec.RawText = text
				return rec
			}
		}
	}

	if strings.TrimSpace(ref.Abstract) != "" {
		rec.Type = types.SourceMetadataOnly
		rec.RawText = ref.MetadataText()
		return rec
	}

	rec.Type = types.SourceUnavailable
	return rec
}
