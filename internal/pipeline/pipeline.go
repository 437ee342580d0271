// Package pipeline wires the extraction stages together. Each stage
// is independently runnable and safe to re-run: extract fully
// rebuilds, embedding only appends, and the classifier queue contract
// makes classification resumable.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/classifier"
	"github.com/fyrsmithlabs/outings/internal/merge"
	"github.com/fyrsmithlabs/outings/internal/scoring"
	"github.com/fyrsmithlabs/outings/internal/semantic"
	"github.com/fyrsmithlabs/outings/internal/store"
)

// Pipeline holds the stage collaborators.
type Pipeline struct {
	store     *store.Store
	patterns  *scoring.PatternScorer
	urls      *scoring.URLScorer
	indexer   *semantic.Indexer
	generator *semantic.Generator
	gateway   *classifier.Gateway
	engine    *merge.Engine
	log       *zap.Logger
}

// New assembles a pipeline from its collaborators.
func New(st *store.Store, patterns *scoring.PatternScorer, urls *scoring.URLScorer,
	indexer *semantic.Indexer, generator *semantic.Generator,
	gateway *classifier.Gateway, engine *merge.Engine, log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		patterns:  patterns,
		urls:      urls,
		indexer:   indexer,
		generator: generator,
		gateway:   gateway,
		engine:    engine,
		log:       log,
	}
}

// Extract runs the lexical and URL scorers over the whole transcript
// and rebuilds the canonical suggestions table from their candidates.
func (p *Pipeline) Extract(ctx context.Context) (int, error) {
	msgs, err := p.store.Messages(ctx)
	if err != nil {
		return 0, err
	}
	candidates := p.patterns.ScoreAll(msgs)
	lexical := len(candidates)

	withLinks, err := p.store.MessagesWithLinks(ctx)
	if err != nil {
		return 0, err
	}
	urlHits := 0
	for _, ml := range withLinks {
		if c, ok := p.urls.Score(ml); ok {
			candidates = append(candidates, c)
			urlHits++
		}
	}

	p.log.Info("extraction done",
		zap.Int("messages", len(msgs)),
		zap.Int("lexical_candidates", lexical),
		zap.Int("url_candidates", urlHits))
	return p.engine.FirstPass(ctx, candidates)
}

// Embed fills the embedding cache for messages not yet embedded.
func (p *Pipeline) Embed(ctx context.Context) (semantic.Stats, error) {
	return p.indexer.EmbedAll(ctx)
}

// Candidates runs the seed-query battery over the embedding cache and
// rebuilds the classifier queue with the ranked results.
func (p *Pipeline) Candidates(ctx context.Context) (int, error) {
	idx, err := semantic.LoadIndex(ctx, p.store)
	if err != nil {
		return 0, err
	}
	entries, err := p.generator.Generate(ctx, idx)
	if err != nil {
		return 0, err
	}
	if err := p.store.ReplaceQueue(ctx, entries); err != nil {
		return 0, err
	}
	p.log.Info("classifier queue rebuilt",
		zap.Int("indexed", idx.Len()),
		zap.Int("queued", len(entries)))
	return len(entries), nil
}

// Classify drains the pending queue through the model and folds the
// positive verdicts into the canonical table.
func (p *Pipeline) Classify(ctx context.Context) (classifier.Stats, merge.SecondStats, error) {
	cstats, err := p.gateway.ClassifyAll(ctx)
	if err != nil {
		return cstats, merge.SecondStats{}, err
	}
	mstats, err := p.engine.SecondPass(ctx)
	return cstats, mstats, err
}

// Run executes the full pipeline: extract, embed, candidates, classify.
func (p *Pipeline) Run(ctx context.Context) error {
	if _, err := p.Extract(ctx); err != nil {
		return err
	}
	if _, err := p.Embed(ctx); err != nil {
		return err
	}
	if _, err := p.Candidates(ctx); err != nil {
		return err
	}
	if _, _, err := p.Classify(ctx); err != nil {
		return err
	}
	return p.LogBreakdown(ctx)
}

// LogBreakdown logs per-strategy suggestion counts.
func (p *Pipeline) LogBreakdown(ctx context.Context) error {
	breakdown, err := p.store.TypeBreakdown(ctx)
	if err != nil {
		return err
	}
	for _, tc := range breakdown {
		p.log.Info("suggestions by type",
			zap.String("type", tc.Type),
			zap.Int("count", tc.Count),
			zap.Float64("avg_confidence", tc.AvgConfidence))
	}
	return nil
}
