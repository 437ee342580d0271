// Package main implements the outings CLI, a pipeline that mines a
// chat transcript for "things we should do together" suggestions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/classifier"
	"github.com/fyrsmithlabs/outings/internal/config"
	"github.com/fyrsmithlabs/outings/internal/embeddings"
	"github.com/fyrsmithlabs/outings/internal/logging"
	"github.com/fyrsmithlabs/outings/internal/merge"
	"github.com/fyrsmithlabs/outings/internal/pipeline"
	"github.com/fyrsmithlabs/outings/internal/scoring"
	"github.com/fyrsmithlabs/outings/internal/semantic"
	"github.com/fyrsmithlabs/outings/internal/store"
)

var (
	// configPath points at an optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "outings",
	Short: "Mine a chat transcript for things to do together",
	Long: `outings parses a WhatsApp chat export and mines it for suggestions of
things to do together: places to visit, activities to try, trips to take.

It combines three strategies: lexical pattern rules, shared-link scoring,
and semantic retrieval refined by an LLM classifier. Results land in a
SQLite database and can be listed, geocoded and exported as CSV.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (env vars override)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(candidatesCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(geocodeCmd)
	rootCmd.AddCommand(exportCmd)
}

// app holds what every command needs: config, logger, open store.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &app{cfg: cfg, log: log, store: st}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// Stage groups a command may need. Credentials are only demanded for
// the stages a command actually reaches, so `extract` runs without an
// embeddings endpoint or classifier key.
const (
	needEmbeddings = 1 << iota
	needClassifier
)

// pipeline assembles the stage graph for the requested stage groups.
func (a *app) pipeline(needs int) (*pipeline.Pipeline, error) {
	patterns, err := scoring.NewPatternScorer(scoring.DefaultRules())
	if err != nil {
		return nil, err
	}
	urls := scoring.NewURLScorer()
	engine := merge.NewEngine(a.store, a.cfg.Merge.WeightSource, a.log)

	var indexer *semantic.Indexer
	var generator *semantic.Generator
	if needs&needEmbeddings != 0 {
		embedService, err := embeddings.NewService(a.cfg.Embeddings)
		if err != nil {
			return nil, err
		}
		indexer = semantic.NewIndexer(embedService, a.store, a.cfg.Embeddings.BatchSize, a.log)
		generator = semantic.NewGenerator(embedService, nil,
			a.cfg.Semantic.TopN, a.cfg.Semantic.QueryK, a.cfg.Semantic.MinSimilarity, a.log)
	}

	var gateway *classifier.Gateway
	if needs&needClassifier != 0 {
		client, err := classifier.NewClient(a.cfg.Classifier)
		if err != nil {
			return nil, err
		}
		gateway = classifier.NewGateway(client, a.store,
			a.cfg.Classifier.BatchSize, a.cfg.Classifier.ContextWindow,
			a.cfg.Classifier.RequestDelay, a.log)
	}

	return pipeline.New(a.store, patterns, urls, indexer, generator, gateway, engine, a.log), nil
}
