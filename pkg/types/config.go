package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperlens/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for source resolution.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinTextLength is the minimum extracted text length, in characters,
	// for a PDF to count as a usable full-text source (default 500).
	// Shorter extractions usually mean a scanned or image-only PDF.
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`

	// MaxDownloadRetries bounds re-attempts when a repository answers
	// HTTP 202 while it renders the PDF (default 3).
	MaxDownloadRetries int `json:"max_download_retries" yaml:"max_download_retries"`

	// EnableSemanticScholar controls the Semantic Scholar open-access
	// PDF fallback.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// ChunkingConfig holds parameters for splitting grounding text.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in characters (default 1000).
	// It must stay below the embedding model's input limit.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is the number of characters shared between consecutive
	// chunks (default 200) so no sentence is orphaned at a boundary.
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`
}

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the engine: "genai" or "http".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the embedding model identifier
	// (default "gemini-embedding-001" for genai,
	// "text-embedding-3-small" for http).
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the endpoint for the OpenAI-compatible http provider.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout is the per-batch embedding call timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// GenerationConfig holds settings for the answer generation backend.
type GenerationConfig struct {
	// Model is the generation model identifier (default "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature controls sampling randomness (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call generation timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig holds settings for the vector store manager.
type StoreConfig struct {
	// IndexDir is the directory holding the index database
	// (default "vectorstores"). Empty disables persistence.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResident caps the number of indices kept in memory (default 32).
	// Least-recently-queried indices are evicted first and reload from
	// the database on next access.
	MaxResident int `json:"max_resident" yaml:"max_resident"`

	// TopK is the number of chunks retrieved per question (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// CompareTopK is the number of chunks retrieved per paper during a
	// comparison (default 3).
	CompareTopK int `json:"compare_top_k" yaml:"compare_top_k"`
}

// EngineConfig groups all stage configurations for the engine.
type EngineConfig struct {
	Source     SourceConfig     `json:"source" yaml:"source"`
	Chunking   ChunkingConfig   `json:"chunking" yaml:"chunking"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
