package classifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// Completer produces a model reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Queue is the slice of the store the gateway needs.
type Queue interface {
	PendingQueue(ctx context.Context) ([]store.QueueEntry, error)
	RecordVerdict(ctx context.Context, messageID int64, activity, location *string, confidence float64) error
	MarkProcessed(ctx context.Context, messageID int64, isSuggestion bool) error
	MessageWindow(ctx context.Context, center int64, window int) ([]store.Message, error)
	MessageByID(ctx context.Context, id int64) (store.Message, error)
}

// Gateway drains the pending queue through the model in batches.
type Gateway struct {
	completer    Completer
	queue        Queue
	batchSize    int
	window       int
	requestDelay time.Duration
	log          *zap.Logger
}

// NewGateway creates a gateway. Zero batchSize defaults to 20 and zero
// window to 2, matching the sizes the prompt was tuned for.
func NewGateway(completer Completer, queue Queue, batchSize, window int, requestDelay time.Duration, log *zap.Logger) *Gateway {
	if batchSize <= 0 {
		batchSize = 20
	}
	if window <= 0 {
		window = 2
	}
	return &Gateway{
		completer:    completer,
		queue:        queue,
		batchSize:    batchSize,
		window:       window,
		requestDelay: requestDelay,
		log:          log,
	}
}

// Stats summarizes a classification run.
type Stats struct {
	Pending     int
	Processed   int
	Suggestions int
	Skipped     int
}

// ClassifyAll sends every pending queue entry through the model.
//
// The processed flag flips only once a reply was received and
// interpreted. A batch whose request failed in transport (timeout,
// connection error, 429, 5xx) is left untouched and counted as
// skipped; the next run picks it up again. A reply that arrived but
// held no usable JSON still marks the whole batch processed with
// negative verdicts: retrying the same messages against the same
// model rarely turns a garbled reply into a good one.
func (g *Gateway) ClassifyAll(ctx context.Context) (Stats, error) {
	pending, err := g.queue.PendingQueue(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Pending: len(pending)}
	if len(pending) == 0 {
		return stats, nil
	}

	g.log.Info("classifying candidates",
		zap.Int("pending", len(pending)),
		zap.Int("batch_size", g.batchSize))

	for start := 0; start < len(pending); start += g.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := start + g.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := g.classifyBatch(ctx, batch, &stats); err != nil {
			return stats, err
		}

		// The delay follows every request regardless of outcome.
		if g.requestDelay > 0 {
			select {
			case <-time.After(g.requestDelay):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}
	}

	g.log.Info("classification run done",
		zap.Int("processed", stats.Processed),
		zap.Int("suggestions", stats.Suggestions),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (g *Gateway) classifyBatch(ctx context.Context, batch []store.QueueEntry, stats *Stats) error {
	items := make([]Item, 0, len(batch))
	for _, entry := range batch {
		msg, err := g.queue.MessageByID(ctx, entry.MessageID)
		if err != nil {
			return err
		}
		window, err := g.queue.MessageWindow(ctx, entry.MessageID, g.window)
		if err != nil {
			return err
		}
		items = append(items, Item{Message: msg, Context: window})
	}

	reply, err := g.completer.Complete(ctx, BuildPrompt(items))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// No interpretable reply; the batch stays pending.
		stats.Skipped += len(batch)
		g.log.Warn("batch request failed, leaving entries pending",
			zap.Int("size", len(batch)),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err))
		return nil
	}

	verdicts, perr := ParseVerdicts(reply)
	if perr != nil {
		g.log.Warn("reply held no usable verdicts, marking batch processed",
			zap.Int("size", len(batch)), zap.Error(perr))
	}

	byID := make(map[int64]Verdict, len(verdicts))
	for _, v := range verdicts {
		byID[v.MessageID] = v
	}

	for _, entry := range batch {
		v, ok := byID[entry.MessageID]
		if ok && v.IsSuggestion {
			if err := g.queue.RecordVerdict(ctx, entry.MessageID, v.Activity, v.Location, v.Confidence); err != nil {
				return err
			}
			stats.Suggestions++
		} else {
			if err := g.queue.MarkProcessed(ctx, entry.MessageID, false); err != nil {
				return err
			}
		}
		stats.Processed++
	}
	return nil
}
