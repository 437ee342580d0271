package semantic

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// batchEmbedder records batch sizes and can be told to fail batches or
// a single text.
type batchEmbedder struct {
	manyErr   error
	failText  string
	manySizes []int
}

func (e *batchEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	e.manySizes = append(e.manySizes, len(texts))
	if e.manyErr != nil {
		return nil, e.manyErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (e *batchEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if text == e.failText {
		return nil, errors.New("cannot embed this text")
	}
	return []float32{1}, nil
}

// memCache is an in-memory EmbeddingCache.
type memCache struct {
	pending []store.Message
	vectors map[int64][]float32
}

func newMemCache(pending ...store.Message) *memCache {
	return &memCache{pending: pending, vectors: make(map[int64][]float32)}
}

func (c *memCache) UnembeddedMessages(ctx context.Context) ([]store.Message, error) {
	return c.pending, nil
}

func (c *memCache) PutEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error {
	for i, id := range ids {
		c.vectors[id] = vectors[i]
	}
	return nil
}

func TestIndexer_EmbedAll(t *testing.T) {
	cache := newMemCache(
		store.Message{ID: 1, Content: "a"},
		store.Message{ID: 2, Content: "b"},
		store.Message{ID: 3, Content: "c"},
	)
	embedder := &batchEmbedder{}
	indexer := NewIndexer(embedder, cache, 2, zap.NewNop())

	stats, err := indexer.EmbedAll(context.Background())
	if err != nil {
		t.Fatalf("EmbedAll() error = %v", err)
	}
	if stats.Embedded != 3 || stats.Failed != 0 || stats.Total != 3 {
		t.Errorf("stats = %+v, want 3 embedded of 3", stats)
	}
	if len(embedder.manySizes) != 2 || embedder.manySizes[0] != 2 || embedder.manySizes[1] != 1 {
		t.Errorf("batch sizes = %v, want [2 1]", embedder.manySizes)
	}
	if len(cache.vectors) != 3 {
		t.Errorf("cached %d vectors, want 3", len(cache.vectors))
	}
}

func TestIndexer_PerItemFallback(t *testing.T) {
	// The batch request fails, so each message is retried alone; the
	// one bad item is counted failed and the rest still land in the
	// cache.
	cache := newMemCache(
		store.Message{ID: 1, Content: "good one"},
		store.Message{ID: 2, Content: "bad"},
		store.Message{ID: 3, Content: "good two"},
	)
	embedder := &batchEmbedder{manyErr: errors.New("batch rejected"), failText: "bad"}
	indexer := NewIndexer(embedder, cache, 10, zap.NewNop())

	stats, err := indexer.EmbedAll(context.Background())
	if err != nil {
		t.Fatalf("EmbedAll() error = %v", err)
	}
	if stats.Embedded != 2 || stats.Failed != 1 || stats.Total != 3 {
		t.Errorf("stats = %+v, want 2 embedded, 1 failed of 3", stats)
	}
	if _, ok := cache.vectors[2]; ok {
		t.Error("failed message must stay out of the cache")
	}
	for _, id := range []int64{1, 3} {
		if _, ok := cache.vectors[id]; !ok {
			t.Errorf("message %d missing from cache after fallback", id)
		}
	}
}

func TestIndexer_NothingPending(t *testing.T) {
	indexer := NewIndexer(&batchEmbedder{}, newMemCache(), 10, zap.NewNop())
	stats, err := indexer.EmbedAll(context.Background())
	if err != nil {
		t.Fatalf("EmbedAll() error = %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
}
