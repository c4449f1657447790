// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed maps text to fixed-dimension vectors behind a narrow,
// swappable Engine interface. Two providers are supported: the Google
// GenAI API and any OpenAI-compatible embeddings endpoint.
//
// Re-embedding identical text with a fixed model configuration must
// produce the identical vector; index reproducibility across restarts
// depends on it.
package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// EmbedBatch embeds document texts, one vector per input,
	// order-preserving. A failure for any input fails the whole batch;
	// a partial result would misalign the chunk-to-vector mapping.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single question for retrieval against
	// document vectors.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Name returns the engine identifier for logging.
	Name() string
}

const (
	defaultGenAIModel = "gemini-embedding-001"
	defaultHTTPModel  = "text-embedding-3-small"

	defaultTimeout = 60 * time.Second
)

// NewEngine creates an embedding engine from configuration.
func NewEngine(cfg types.EmbeddingConfig) (Engine, error) {
	switch cfg.Provider {
	case "genai", "":
		return NewGenAIEngine(cfg)
	case "http":
		return NewHTTPEngine(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use \"genai\" or \"http\")", cfg.Provider)
	}
}
