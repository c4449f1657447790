// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/Rohith-gande/PaperLens-updated/internal/answer"
	"github.com/Rohith-gande/PaperLens-updated/internal/compare"
	"github.com/Rohith-gande/PaperLens-updated/internal/embed"
	"github.com/Rohith-gande/PaperLens-updated/internal/source"
	"github.com/Rohith-gande/PaperLens-updated/internal/vectorstore"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "paperlens/0.1"
)

// engineConfig assembles the engine configuration from viper keys,
// with loaded secrets standing in for unset API keys.
func engineConfig() types.EngineConfig {
	viper.SetDefault("source.timeout", defaultTimeout)
	viper.SetDefault("source.user_agent", defaultUserAgent)
	viper.SetDefault("source.enable_semantic_scholar", true)
	viper.SetDefault("embedding.provider", "genai")
	viper.SetDefault("generation.timeout", 120*time.Second)
	viper.SetDefault("store.index_dir", "vectorstores")

	cfg := types.EngineConfig{
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: viper.GetString("source.user_agent"),
			},
			MinTextLength:         viper.GetInt("source.min_text_length"),
			MaxDownloadRetries:    viper.GetInt("source.max_download_retries"),
			EnableSemanticScholar: viper.GetBool("source.enable_semantic_scholar"),
			SemanticScholarAPIKey: viper.GetString("source.semantic_scholar_api_key"),
		},
		Chunking: types.ChunkingConfig{
			ChunkSize:    viper.GetInt("chunking.chunk_size"),
			ChunkOverlap: viper.GetInt("chunking.chunk_overlap"),
		},
		Embedding: types.EmbeddingConfig{
			Provider: viper.GetString("embedding.provider"),
			Model:    viper.GetString("embedding.model"),
			APIKey:   viper.GetString("embedding.api_key"),
			BaseURL:  viper.GetString("embedding.base_url"),
			Timeout:  viper.GetDuration("embedding.timeout"),
		},
		Generation: types.GenerationConfig{
			Model:       viper.GetString("generation.model"),
			APIKey:      viper.GetString("generation.api_key"),
			Temperature: viper.GetFloat64("generation.temperature"),
			MaxRetries:  viper.GetInt("generation.max_retries"),
			Timeout:     viper.GetDuration("generation.timeout"),
		},
		Store: types.StoreConfig{
			IndexDir:    viper.GetString("store.index_dir"),
			MaxResident: viper.GetInt("store.max_resident"),
			TopK:        viper.GetInt("store.top_k"),
			CompareTopK: viper.GetInt("store.compare_top_k"),
		},
	}

	cfg.Generation.APIKey = secretDefault("gemini-api-key", cfg.Generation.APIKey)
	cfg.Source.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", cfg.Source.SemanticScholarAPIKey)
	switch cfg.Embedding.Provider {
	case "http":
		cfg.Embedding.APIKey = secretDefault("openai-api-key", cfg.Embedding.APIKey)
	default:
		cfg.Embedding.APIKey = secretDefault("gemini-api-key", cfg.Embedding.APIKey)
	}

	return cfg
}

// engines wires the full pipeline: resolver, embedder, index manager,
// and generation backend.
type engines struct {
	answer  *answer.Engine
	compare *compare.Engine
	store   *vectorstore.Store
}

func (e *engines) close() {
	if e.store != nil {
		e.store.Close()
	}
}

func buildEngines(cfg types.EngineConfig) (*engines, error) {
	client := &http.Client{Timeout: cfg.Source.Timeout}
	resolver := source.NewResolver(client, &source.PdftotextExtractor{}, cfg.Source)

	embedder, err := embed.NewEngine(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating embedding engine: %w", err)
	}

	var store *vectorstore.Store
	if cfg.Store.IndexDir != "" {
		store, err = vectorstore.NewStore(cfg.Store.IndexDir)
		if err != nil {
			return nil, fmt.Errorf("opening index store: %w", err)
		}
	}

	mgr := vectorstore.NewManager(embedder, store, cfg.Store, cfg.Chunking)
	backend := answer.NewGeminiBackend(cfg.Generation, &http.Client{Timeout: cfg.Generation.Timeout})

	ans := answer.NewEngine(resolver, mgr, backend, cfg.Generation)
	return &engines{
		answer:  ans,
		compare: compare.NewEngine(ans, mgr, backend, cfg.Generation),
		store:   store,
	}, nil
}

// loadRefs reads paper references from a YAML file holding a list of
// entries with title, authors, year, abstract, source_url, pdf_url,
// and external_ids.
func loadRefs(path string) ([]types.PaperReference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading references file %s: %w", path, err)
	}
	var refs []types.PaperReference
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("parsing references file %s: %w", path, err)
	}
	return refs, nil
}

// gatherRefs combines a references file with bare URL arguments.
func gatherRefs(file string, urls []string) ([]types.PaperReference, error) {
	var refs []types.PaperReference
	if file != "" {
		fromFile, err := loadRefs(file)
		if err != nil {
			return nil, err
		}
		refs = append(refs, fromFile...)
	}
	for _, u := range urls {
		refs = append(refs, types.PaperReference{SourceURL: u})
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("provide paper URLs or a references file with -f")
	}
	return refs, nil
}
