// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Rohith-gande/PaperLens-updated/internal/httputil"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API base URL. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

// SemanticScholar looks up open-access PDF links for papers.
type SemanticScholar struct {
	Client *http.Client
	APIKey string
}

type semanticPaper struct {
	OpenAccessPDF struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

type semanticSearchResponse struct {
	Data []semanticPaper `json:"data"`
}

// OpenAccessPDF returns the open-access PDF URL for a reference, or ""
// when Semantic Scholar has none. It resolves by DOI when the
// reference carries one, by Semantic Scholar paper id when the source
// URL points at semanticscholar.org, and falls back to a title search.
func (s *SemanticScholar) OpenAccessPDF(ctx context.Context, ref types.PaperReference) (string, error) {
	if doi := externalID(ref, "DOI"); doi != "" {
		return s.lookup(ctx, "/paper/DOI:"+doi)
	}

	if strings.Contains(ref.SourceURL, "semanticscholar.org") {
		parts := strings.Split(strings.TrimRight(ref.SourceURL, "/"), "/")
		if id := parts[len(parts)-1]; id != "" {
			return s.lookup(ctx, "/paper/"+id)
		}
	}

	if ref.Title != "" {
		return s.searchByTitle(ctx, ref.Title)
	}
	return "", nil
}

func (s *SemanticScholar) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return nil
}

func (s *SemanticScholar) lookup(ctx context.Context, path string) (string, error) {
	var p semanticPaper
	if err := s.get(ctx, semanticAPIBase+path+"?fields=openAccessPdf", &p); err != nil {
		return "", err
	}
	return p.OpenAccessPDF.URL, nil
}

func (s *SemanticScholar) searchByTitle(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"query":  {strings.TrimSpace(title)},
		"fields": {"openAccessPdf"},
		"limit":  {"1"},
	}
	var sr semanticSearchResponse
	if err := s.get(ctx, semanticAPIBase+"/paper/search?"+params.Encode(), &sr); err != nil {
		return "", err
	}
	if len(sr.Data) == 0 {
		return "", nil
	}
	return sr.Data[0].OpenAccessPDF.URL, nil
}
