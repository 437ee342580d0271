// Package config provides configuration loading for outings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/outings/internal/logging"
)

// ErrInvalidConfig indicates a configuration value that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration for the pipeline.
type Config struct {
	// Database is the path to the SQLite database file.
	Database string `koanf:"database"`

	Logging    logging.Config   `koanf:"logging"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Semantic   SemanticConfig   `koanf:"semantic"`
	Merge      MergeConfig      `koanf:"merge"`
	Geocode    GeocodeConfig    `koanf:"geocode"`
}

// EmbeddingsConfig configures the embedding provider client.
type EmbeddingsConfig struct {
	// BaseURL is the base URL of an OpenAI-compatible embeddings API.
	BaseURL string `koanf:"base_url"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// APIKey authenticates requests. Optional for local servers.
	APIKey string `koanf:"api_key"`
	// BatchSize is how many texts are embedded per request.
	BatchSize int `koanf:"batch_size"`
	// MaxChars truncates each text before embedding.
	MaxChars int `koanf:"max_chars"`
	// Timeout bounds each embedding request.
	Timeout time.Duration `koanf:"timeout"`
}

// ClassifierConfig configures the batch judgment service client.
type ClassifierConfig struct {
	// BaseURL is the base URL of an Anthropic-compatible messages API.
	BaseURL string `koanf:"base_url"`
	// Model is the judgment model name.
	Model string `koanf:"model"`
	// APIKey authenticates requests.
	APIKey string `koanf:"api_key"`
	// BatchSize is how many candidate messages go in one request.
	BatchSize int `koanf:"batch_size"`
	// ContextWindow is how many messages on each side of the target
	// are included for context.
	ContextWindow int `koanf:"context_window"`
	// RequestDelay is the fixed pause after each batch request,
	// applied regardless of outcome.
	RequestDelay time.Duration `koanf:"request_delay"`
	// Timeout bounds each batch request; a timed-out batch is skipped,
	// not retried inline.
	Timeout time.Duration `koanf:"timeout"`
	// MaxTokens caps the response length.
	MaxTokens int `koanf:"max_tokens"`
}

// SemanticConfig configures semantic candidate generation.
type SemanticConfig struct {
	// TopN bounds how many candidates are queued for classification.
	TopN int `koanf:"top_n"`
	// QueryK is the per-seed-query neighbor count.
	QueryK int `koanf:"query_k"`
	// MinSimilarity is the per-seed-query similarity floor.
	MinSimilarity float64 `koanf:"min_similarity"`
}

// Accepted values for MergeConfig.WeightSource.
const (
	WeightSimilarity = "similarity"
	WeightClassifier = "classifier"
	WeightMax        = "max"
)

// MergeConfig configures the merge engine.
type MergeConfig struct {
	// WeightSource selects the confidence used when merging classifier
	// verdicts: "similarity" (retrieval score), "classifier" (the
	// model's self-reported confidence), or "max" (the larger of both).
	WeightSource string `koanf:"weight_source"`
}

// GeocodeConfig configures the geocoding collaborator.
type GeocodeConfig struct {
	// BaseURL is the base URL of a Google-style geocoding API.
	BaseURL string `koanf:"base_url"`
	// APIKey authenticates requests.
	APIKey string `koanf:"api_key"`
	// RegionBias is appended to bare place names, e.g. "New Zealand".
	RegionBias string `koanf:"region_bias"`
	// RequestDelay is the fixed pause after each geocoding request.
	RequestDelay time.Duration `koanf:"request_delay"`
	// Bounds restricts accepted results; zero value disables the check.
	Bounds BoundsConfig `koanf:"bounds"`
}

// BoundsConfig is a lat/lng bounding box.
type BoundsConfig struct {
	MinLat float64 `koanf:"min_lat"`
	MaxLat float64 `koanf:"max_lat"`
	MinLng float64 `koanf:"min_lng"`
	MaxLng float64 `koanf:"max_lng"`
}

// Contains reports whether the point falls inside the box.
// A zero box accepts everything.
func (b BoundsConfig) Contains(lat, lng float64) bool {
	if b == (BoundsConfig{}) {
		return true
	}
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database path required", ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: logging: %v", ErrInvalidConfig, err)
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("%w: embeddings.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Classifier.BatchSize <= 0 {
		return fmt.Errorf("%w: classifier.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Classifier.ContextWindow < 0 {
		return fmt.Errorf("%w: classifier.context_window cannot be negative", ErrInvalidConfig)
	}
	if c.Semantic.TopN <= 0 {
		return fmt.Errorf("%w: semantic.top_n must be positive", ErrInvalidConfig)
	}
	if c.Semantic.MinSimilarity < 0 || c.Semantic.MinSimilarity > 1 {
		return fmt.Errorf("%w: semantic.min_similarity must be in [0,1]", ErrInvalidConfig)
	}
	switch c.Merge.WeightSource {
	case WeightSimilarity, WeightClassifier, WeightMax:
	default:
		return fmt.Errorf("%w: merge.weight_source must be similarity, classifier or max", ErrInvalidConfig)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Database == "" {
		cfg.Database = "outings.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "https://api.openai.com"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}
	if cfg.Embeddings.BatchSize == 0 {
		cfg.Embeddings.BatchSize = 100
	}
	if cfg.Embeddings.MaxChars == 0 {
		cfg.Embeddings.MaxChars = 8000
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = 60 * time.Second
	}

	if cfg.Classifier.BaseURL == "" {
		cfg.Classifier.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = "claude-3-5-haiku-latest"
	}
	if cfg.Classifier.BatchSize == 0 {
		cfg.Classifier.BatchSize = 20
	}
	if cfg.Classifier.ContextWindow == 0 {
		cfg.Classifier.ContextWindow = 2
	}
	if cfg.Classifier.RequestDelay == 0 {
		cfg.Classifier.RequestDelay = 500 * time.Millisecond
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 120 * time.Second
	}
	if cfg.Classifier.MaxTokens == 0 {
		cfg.Classifier.MaxTokens = 2000
	}

	if cfg.Semantic.TopN == 0 {
		cfg.Semantic.TopN = 500
	}
	if cfg.Semantic.QueryK == 0 {
		cfg.Semantic.QueryK = 200
	}
	if cfg.Semantic.MinSimilarity == 0 {
		cfg.Semantic.MinSimilarity = 0.25
	}

	if cfg.Merge.WeightSource == "" {
		cfg.Merge.WeightSource = WeightSimilarity
	}

	if cfg.Geocode.BaseURL == "" {
		cfg.Geocode.BaseURL = "https://maps.googleapis.com"
	}
	if cfg.Geocode.RequestDelay == 0 {
		cfg.Geocode.RequestDelay = 200 * time.Millisecond
	}
}
