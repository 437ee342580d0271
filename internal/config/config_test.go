package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "outings.db", cfg.Database)
	assert.Equal(t, "https://api.openai.com", cfg.Embeddings.BaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
	assert.Equal(t, 20, cfg.Classifier.BatchSize)
	assert.Equal(t, 2, cfg.Classifier.ContextWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Classifier.RequestDelay)
	assert.Equal(t, 500, cfg.Semantic.TopN)
	assert.Equal(t, 0.25, cfg.Semantic.MinSimilarity)
	assert.Equal(t, WeightSimilarity, cfg.Merge.WeightSource)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outings.yaml")
	content := `
database: /tmp/test.db
classifier:
  batch_size: 5
  model: test-model
merge:
  weight_source: max
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.Database)
	assert.Equal(t, 5, cfg.Classifier.BatchSize)
	assert.Equal(t, "test-model", cfg.Classifier.Model)
	assert.Equal(t, WeightMax, cfg.Merge.WeightSource)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: from-file.db\n"), 0o600))

	t.Setenv("OUTINGS_DATABASE", "from-env.db")
	t.Setenv("OUTINGS_CLASSIFIER_API_KEY", "sekrit")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database)
	assert.Equal(t, "sekrit", cfg.Classifier.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(c *Config) {}},
		{name: "empty database", mutate: func(c *Config) { c.Database = "" }, wantErr: true},
		{name: "zero classifier batch", mutate: func(c *Config) { c.Classifier.BatchSize = 0 }, wantErr: true},
		{name: "negative context window", mutate: func(c *Config) { c.Classifier.ContextWindow = -1 }, wantErr: true},
		{name: "zero top n", mutate: func(c *Config) { c.Semantic.TopN = 0 }, wantErr: true},
		{name: "similarity floor above one", mutate: func(c *Config) { c.Semantic.MinSimilarity = 1.5 }, wantErr: true},
		{name: "bad weight source", mutate: func(c *Config) { c.Merge.WeightSource = "average" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "shouty" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoundsContains(t *testing.T) {
	var zero BoundsConfig
	assert.True(t, zero.Contains(51.5, -0.12), "zero box accepts everything")

	nz := BoundsConfig{MinLat: -47.5, MaxLat: -34.0, MinLng: 166.0, MaxLng: 179.0}
	assert.True(t, nz.Contains(-36.85, 174.76))
	assert.False(t, nz.Contains(51.5, -0.12))
}
