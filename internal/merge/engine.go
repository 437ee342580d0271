// Package merge folds candidates from the lexical, URL and classifier
// strategies into the canonical suggestions table, keeping at most one
// row per message.
package merge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/config"
	"github.com/fyrsmithlabs/outings/internal/scoring"
	"github.com/fyrsmithlabs/outings/internal/store"
)

// Canon is the slice of the store the engine writes through.
type Canon interface {
	ReplaceSuggestions(ctx context.Context, suggestions []store.Suggestion) error
	Suggestion(ctx context.Context, messageID int64) (store.Suggestion, error)
	InsertSuggestion(ctx context.Context, sg store.Suggestion) error
	UpdateSuggestion(ctx context.Context, sg store.Suggestion) error
	PositiveVerdicts(ctx context.Context) ([]store.QueueEntry, error)
}

// Engine merges candidate streams into the canonical table.
type Engine struct {
	canon        Canon
	weightSource string
	log          *zap.Logger
}

// NewEngine creates an engine. weightSource selects the confidence a
// classifier verdict contributes: the candidate's retrieval similarity
// ("similarity", the default), the model's own confidence
// ("classifier"), or whichever is larger ("max").
func NewEngine(canon Canon, weightSource string, log *zap.Logger) *Engine {
	if weightSource == "" {
		weightSource = config.WeightSimilarity
	}
	return &Engine{canon: canon, weightSource: weightSource, log: log}
}

// FirstPass rebuilds the canonical table from lexical and URL
// candidates. Per message it keeps the highest-confidence candidate,
// breaking ties toward the higher-priority rule. A full rebuild is
// what makes re-running extraction safe: stale rows from a previous
// transcript cannot survive it.
func (e *Engine) FirstPass(ctx context.Context, candidates []scoring.Candidate) (int, error) {
	best := make(map[int64]scoring.Candidate)
	for _, c := range candidates {
		prev, ok := best[c.MessageID]
		if !ok || c.Confidence > prev.Confidence ||
			(c.Confidence == prev.Confidence && c.Priority > prev.Priority) {
			best[c.MessageID] = c
		}
	}

	rows := make([]store.Suggestion, 0, len(best))
	for _, c := range best {
		rows = append(rows, store.Suggestion{
			MessageID:  c.MessageID,
			Type:       c.ProvenanceTag(),
			Confidence: c.Confidence,
			Activity:   c.Activity,
			Location:   c.Location,
		})
	}
	if err := e.canon.ReplaceSuggestions(ctx, rows); err != nil {
		return 0, fmt.Errorf("merge: first pass: %w", err)
	}
	e.log.Info("first-pass merge done",
		zap.Int("candidates", len(candidates)),
		zap.Int("suggestions", len(rows)))
	return len(rows), nil
}

// SecondStats summarizes a second-pass run.
type SecondStats struct {
	Verdicts int
	Inserted int
	Updated  int
}

// SecondPass folds positive classifier verdicts into the canonical
// table incrementally. A verdict for a message with no canonical row
// inserts one; a verdict for an existing row fills its null text
// fields and raises its confidence, never lowering it or blanking a
// field that already has text. Coordinates and review status are
// never touched here. Running the pass twice over the same verdicts
// changes nothing.
func (e *Engine) SecondPass(ctx context.Context) (SecondStats, error) {
	verdicts, err := e.canon.PositiveVerdicts(ctx)
	if err != nil {
		return SecondStats{}, fmt.Errorf("merge: second pass: %w", err)
	}
	stats := SecondStats{Verdicts: len(verdicts)}

	for _, v := range verdicts {
		weight := e.verdictWeight(v)

		existing, err := e.canon.Suggestion(ctx, v.MessageID)
		if errors.Is(err, store.ErrNotFound) {
			sg := store.Suggestion{
				MessageID:  v.MessageID,
				Type:       string(scoring.SourceClassifier),
				Confidence: weight,
				Activity:   v.Activity,
				Location:   v.Location,
			}
			if err := e.canon.InsertSuggestion(ctx, sg); err != nil {
				return stats, fmt.Errorf("merge: insert %d: %w", v.MessageID, err)
			}
			stats.Inserted++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("merge: lookup %d: %w", v.MessageID, err)
		}

		merged := existing
		if merged.Activity == nil {
			merged.Activity = v.Activity
		}
		if merged.Location == nil {
			merged.Location = v.Location
		}
		if weight > merged.Confidence {
			merged.Confidence = weight
		}
		if merged == existing {
			continue
		}
		if err := e.canon.UpdateSuggestion(ctx, merged); err != nil {
			return stats, fmt.Errorf("merge: update %d: %w", v.MessageID, err)
		}
		stats.Updated++
	}

	e.log.Info("second-pass merge done",
		zap.Int("verdicts", stats.Verdicts),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated))
	return stats, nil
}

// verdictWeight picks the merge weight for a verdict and clamps it
// into [0,1]: canonical confidence stays in range even when a queue
// row carries an out-of-range model confidence.
func (e *Engine) verdictWeight(v store.QueueEntry) float64 {
	classifier := v.Similarity
	if v.Confidence != nil {
		classifier = *v.Confidence
	}
	switch e.weightSource {
	case config.WeightClassifier:
		return clamp01(classifier)
	case config.WeightMax:
		if classifier > v.Similarity {
			return clamp01(classifier)
		}
		return clamp01(v.Similarity)
	default:
		return clamp01(v.Similarity)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
