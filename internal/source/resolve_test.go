// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rohith-gande/PaperLens-updated/internal/httputil"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func TestNormalizePDFURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already a pdf", "https://example.org/paper.pdf", "https://example.org/paper.pdf"},
		{"arxiv abstract page", "https://arxiv.org/abs/2301.07041", arxivPDFBase + "2301.07041"},
		{"arxiv abstract with fragment", "https://arxiv.org/abs/2301.07041#related", arxivPDFBase + "2301.07041"},
		{"arxiv pdf without suffix", "https://arxiv.org/pdf/2301.07041", "https://arxiv.org/pdf/2301.07041.pdf"},
		{"openreview forum", "https://openreview.net/forum?id=abc123", "https://openreview.net/pdf?id=abc123"},
		{"unknown landing page", "https://example.org/article/42", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePDFURL(tt.in); got != tt.want {
				t.Errorf("NormalizePDFURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// fakeExtractor returns fixed text without touching pdftotext.
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

const fakePDFContent = "%PDF-1.4 fake pdf body"

func testResolver(client *http.Client, text string, cfg types.SourceConfig) *Resolver {
	if cfg.MinTextLength == 0 {
		cfg.MinTextLength = 10
	}
	return NewResolver(client, fakeExtractor{text: text}, cfg)
}

func TestResolvePrimaryPDF(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	r := testResolver(ts.Client(), strings.Repeat("text ", 20), types.SourceConfig{})
	ref := types.PaperReference{Title: "T", PDFURL: ts.URL + "/paper.pdf", SourceURL: ts.URL + "/paper.pdf"}

	rec := r.Resolve(context.Background(), ref)
	if rec.Type != types.SourcePDFPrimary {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourcePDFPrimary)
	}
	if !strings.Contains(rec.RawText, "text") {
		t.Errorf("raw text missing extracted content: %q", rec.RawText)
	}
	if rec.PaperID != ref.ID() {
		t.Errorf("paper id = %s, want %s", rec.PaperID, ref.ID())
	}
}

func TestResolveUnreachableFallsBackToMetadata(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	r := testResolver(ts.Client(), "irrelevant", types.SourceConfig{})
	ref := types.PaperReference{
		Title:     "A",
		Abstract:  "Studies X.",
		SourceURL: ts.URL + "/a.pdf",
	}

	rec := r.Resolve(context.Background(), ref)
	if rec.Type != types.SourceMetadataOnly {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourceMetadataOnly)
	}
	if !strings.Contains(rec.RawText, "Studies X.") || !strings.Contains(rec.RawText, "Title: A") {
		t.Errorf("metadata text = %q", rec.RawText)
	}
}

func TestResolveShortExtractionDegrades(t *testing.T) {
	// A scanned PDF extracts to almost nothing; that must not count as
	// full text.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	r := testResolver(ts.Client(), "tiny", types.SourceConfig{MinTextLength: 500})
	ref := types.PaperReference{Title: "T", Abstract: "An abstract.", PDFURL: ts.URL + "/p.pdf"}

	rec := r.Resolve(context.Background(), ref)
	if rec.Type != types.SourceMetadataOnly {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourceMetadataOnly)
	}
}

func TestResolveNonPDFContentDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>not a pdf</html>")
	}))
	defer ts.Close()

	r := testResolver(ts.Client(), strings.Repeat("x", 600), types.SourceConfig{})
	ref := types.PaperReference{Title: "T", Abstract: "An abstract.", PDFURL: ts.URL + "/p.pdf"}

	rec := r.Resolve(context.Background(), ref)
	if rec.Type != types.SourceMetadataOnly {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourceMetadataOnly)
	}
}

func TestResolveNoURLNoAbstractUnavailable(t *testing.T) {
	r := testResolver(http.DefaultClient, "", types.SourceConfig{})
	rec := r.Resolve(context.Background(), types.PaperReference{Title: "Only a title"})
	if rec.Type != types.SourceUnavailable {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourceUnavailable)
	}
	if rec.RawText != "" {
		t.Errorf("raw text should be empty for unavailable, got %q", rec.RawText)
	}
}

func TestResolveArxivExternalIDCandidate(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !strings.HasPrefix(r.URL.Path, "/pdf/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	orig := arxivPDFBase
	arxivPDFBase = ts.URL + "/pdf/"
	defer func() { arxivPDFBase = orig }()

	r := testResolver(ts.Client(), strings.Repeat("full text ", 20), types.SourceConfig{})
	ref := types.PaperReference{
		Title:       "T",
		ExternalIDs: map[string]string{"ArXiv": "2301.07041"},
	}

	rec := r.Resolve(context.Background(), ref)
	if rec.Type != types.SourcePDFSecondary {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourcePDFSecondary)
	}
	if atomic.LoadInt32(&hits) == 0 {
		t.Error("arXiv endpoint was never hit")
	}
}

func TestResolveSemanticScholarFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/graph/paper/search"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"data":[{"openAccessPdf":{"url":%q}}]}`, "http://"+r.Host+"/oa.pdf")
		case r.URL.Path == "/oa.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL + "/graph"
	defer func() { semanticAPIBase = orig }()

	r := testResolver(ts.Client(), strings.Repeat("oa text ", 20), types.SourceConfig{
		EnableSemanticScholar: true,
	})
	ref := types.PaperReference{Title: "Retrieval at Scale"}

	rec := r.Resolve(context.Background(), ref)
	if rec.Type != types.SourcePDFSecondary {
		t.Fatalf("source type = %s, want %s", rec.Type, types.SourcePDFSecondary)
	}
}

func TestOpenAccessPDFByDOI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "DOI:10.1145/1234") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"openAccessPdf":{"url":"https://oa.example.org/x.pdf"}}`)
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = orig }()

	s2 := &SemanticScholar{Client: ts.Client()}
	got, err := s2.OpenAccessPDF(context.Background(), types.PaperReference{
		ExternalIDs: map[string]string{"DOI": "10.1145/1234"},
	})
	if err != nil {
		t.Fatalf("OpenAccessPDF: %v", err)
	}
	if got != "https://oa.example.org/x.pdf" {
		t.Errorf("got %q", got)
	}
}
