// Package semantic finds classifier candidates by nearest-neighbor
// search over cached message embeddings.
package semantic

import (
	"context"
	"math"
	"sort"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// Hit is one nearest-neighbor result.
type Hit struct {
	MessageID  int64
	Similarity float64
}

// Index is an in-memory view of the embedding cache supporting
// nearest-neighbor queries. The transcript corpus is small enough that
// a linear scan beats maintaining a separate vector store.
type Index struct {
	entries []store.Embedding
}

// EmbeddingReader is the cache capability the index needs.
type EmbeddingReader interface {
	Embeddings(ctx context.Context) ([]store.Embedding, error)
}

// LoadIndex reads every cached vector into an index.
func LoadIndex(ctx context.Context, r EmbeddingReader) (*Index, error) {
	entries, err := r.Embeddings(ctx)
	if err != nil {
		return nil, err
	}
	return &Index{entries: entries}, nil
}

// Len returns the number of indexed messages.
func (ix *Index) Len() int { return len(ix.entries) }

// Nearest returns up to k messages with cosine similarity to query of
// at least minSimilarity, ranked by similarity descending.
func (ix *Index) Nearest(query []float32, k int, minSimilarity float64) []Hit {
	var hits []Hit
	for _, e := range ix.entries {
		sim := Cosine(query, e.Vector)
		if sim >= minSimilarity {
			hits = append(hits, Hit{MessageID: e.MessageID, Similarity: sim})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].MessageID < hits[j].MessageID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Cosine returns the cosine similarity of two vectors: the dot product
// normalized by both magnitudes. A zero-norm operand yields 0 rather
// than a division error. Length mismatch compares the shared prefix.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
