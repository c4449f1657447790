// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/Rohith-gande/PaperLens-updated/internal/httputil"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// defaultHTTPBase is the OpenAI embeddings endpoint. Configurable so
// tests and self-hosted OpenAI-compatible servers can substitute it.
const defaultHTTPBase = "https://api.openai.com/v1"

// HTTPEngine calls an OpenAI-compatible /embeddings endpoint.
type HTTPEngine struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewHTTPEngine creates an OpenAI-compatible embeddings client.
func NewHTTPEngine(cfg types.EmbeddingConfig) (*HTTPEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required for the http provider")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultHTTPBase
	}
	model := cfg.Model
	if model == "" {
		model = defaultHTTPModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPEngine{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch embeds all texts in a single request. A count mismatch
// between inputs and returned vectors fails the batch.
func (e *HTTPEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingsRequest{Input: texts, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("encoding embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := httputil.DoWithRetry(ctx, e.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API returned HTTP %d", resp.StatusCode)
	}

	var er embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}

	if len(er.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(er.Data), len(texts))
	}

	// The API may return entries out of order; the index field is
	// authoritative.
	sort.Slice(er.Data, func(i, j int) bool { return er.Data[i].Index < er.Data[j].Index })

	vectors := make([][]float32, len(er.Data))
	for i, d := range er.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embeddings API returned an empty vector at index %d", d.Index)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// EmbedQuery embeds a single question text.
func (e *HTTPEngine) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Name returns the engine identifier.
func (e *HTTPEngine) Name() string {
	return fmt.Sprintf("http:%s", e.model)
}

var _ Engine = (*HTTPEngine)(nil)
