package semantic

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// SeedQuery is a fixed topical phrase probed against the index. Zero
// K or MinSimilarity fall back to the generator's defaults.
type SeedQuery struct {
	Text          string
	K             int
	MinSimilarity float64
}

// DefaultSeedQueries spans direct-suggestion phrasing and concrete
// activity categories; the spread matters more than any single query.
func DefaultSeedQueries() []SeedQuery {
	return []SeedQuery{
		// Direct suggestion phrasing.
		{Text: "we should go visit this place together"},
		{Text: "let's try this activity sometime"},
		{Text: "I want to go there with you"},
		{Text: "this looks like a fun thing to do"},
		{Text: "bucket list destination we should visit"},

		// Activity categories.
		{Text: "hiking trail walk nature reserve"},
		{Text: "restaurant cafe bar food dining"},
		{Text: "beach swimming kayaking water activities"},
		{Text: "concert show festival event tickets"},
		{Text: "hotel airbnb accommodation travel trip"},

		// Regional.
		{Text: "Queenstown Rotorua Wellington adventure"},
		{Text: "New Zealand places to visit explore"},
	}
}

// Generator runs the seed-query battery and aggregates hits into one
// ranked candidate set. It is a high-recall filter bounding how much
// the classifier must examine, not a final judgment.
type Generator struct {
	embedder Embedder
	seeds    []SeedQuery
	topN     int
	defaultK int
	minSim   float64
	log      *zap.Logger
}

// NewGenerator creates a generator. Nil seeds use the default battery.
func NewGenerator(embedder Embedder, seeds []SeedQuery, topN, defaultK int, minSim float64, log *zap.Logger) *Generator {
	if len(seeds) == 0 {
		seeds = DefaultSeedQueries()
	}
	return &Generator{
		embedder: embedder,
		seeds:    seeds,
		topN:     topN,
		defaultK: defaultK,
		minSim:   minSim,
		log:      log,
	}
}

// Generate probes the index with every seed query and keeps, per
// message, the maximum similarity seen across queries. A message that
// strongly matches even one seed is a strong candidate; summing or
// averaging would bury it. Returns the top-N messages as fresh queue
// entries, ranked by that maximum.
func (g *Generator) Generate(ctx context.Context, idx *Index) ([]store.QueueEntry, error) {
	best := make(map[int64]float64)

	for _, seed := range g.seeds {
		k := seed.K
		if k == 0 {
			k = g.defaultK
		}
		minSim := seed.MinSimilarity
		if minSim == 0 {
			minSim = g.minSim
		}

		vec, err := g.embedder.EmbedOne(ctx, seed.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.log.Warn("seed query embedding failed, skipping",
				zap.String("query", seed.Text), zap.Error(err))
			continue
		}

		hits := idx.Nearest(vec, k, minSim)
		for _, h := range hits {
			if h.Similarity > best[h.MessageID] {
				best[h.MessageID] = h.Similarity
			}
		}
		g.log.Debug("seed query done",
			zap.String("query", seed.Text), zap.Int("hits", len(hits)))
	}

	entries := make([]store.QueueEntry, 0, len(best))
	for id, sim := range best {
		entries = append(entries, store.QueueEntry{MessageID: id, Similarity: sim})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Similarity != entries[j].Similarity {
			return entries[i].Similarity > entries[j].Similarity
		}
		return entries[i].MessageID < entries[j].MessageID
	})
	if g.topN > 0 && len(entries) > g.topN {
		entries = entries[:g.topN]
	}
	return entries, nil
}
