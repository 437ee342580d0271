package semantic

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// Embedder is the embedding provider capability.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache is the store capability the indexer writes through.
type EmbeddingCache interface {
	UnembeddedMessages(ctx context.Context) ([]store.Message, error)
	PutEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error
}

// Indexer fills the embedding cache: each message is embedded at most
// once, and messages without usable text are never embedded (the
// cache reader already filters them out).
type Indexer struct {
	embedder  Embedder
	cache     EmbeddingCache
	batchSize int
	log       *zap.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(embedder Embedder, cache EmbeddingCache, batchSize int, log *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Indexer{embedder: embedder, cache: cache, batchSize: batchSize, log: log}
}

// Stats summarizes an EmbedAll run.
type Stats struct {
	Embedded int
	Failed   int
	Total    int
}

// EmbedAll embeds every message still missing a vector, in batches.
// A failed batch falls back to per-item requests so one bad input does
// not void the rest of the batch; items that still fail are logged and
// skipped, left for a later run.
func (ix *Indexer) EmbedAll(ctx context.Context) (Stats, error) {
	pending, err := ix.cache.UnembeddedMessages(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(pending)}
	if len(pending) == 0 {
		return stats, nil
	}

	for start := 0; start < len(pending); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		ids := make([]int64, len(batch))
		texts := make([]string, len(batch))
		for i, m := range batch {
			ids[i] = m.ID
			texts[i] = m.Content
		}

		vectors, err := ix.embedder.EmbedMany(ctx, texts)
		if err == nil {
			if err := ix.cache.PutEmbeddings(ctx, ids, vectors); err != nil {
				return stats, err
			}
			stats.Embedded += len(batch)
			continue
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		ix.log.Warn("embedding batch failed, retrying per item",
			zap.Int("batch_size", len(batch)), zap.Error(err))

		for i, m := range batch {
			vec, err := ix.embedder.EmbedOne(ctx, texts[i])
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				stats.Failed++
				ix.log.Warn("embedding message failed",
					zap.Int64("message_id", m.ID), zap.Error(err))
				continue
			}
			if err := ix.cache.PutEmbeddings(ctx, []int64{m.ID}, [][]float32{vec}); err != nil {
				return stats, err
			}
			stats.Embedded++
		}
	}
	return stats, nil
}
