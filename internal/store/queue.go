package store

import (
	"context"
	"database/sql"
	"fmt"
)

// QueueEntry is one classifier work-queue row. Processed is monotone:
// it flips false -> true exactly once, when a reply for the entry's
// batch was received and interpreted, and is never reverted. A bare
// timeout or transport failure leaves the entry untouched so a later
// run retries it.
type QueueEntry struct {
	MessageID  int64
	Similarity float64
	Processed  bool

	// Verdict fields, populated when the classifier judged the entry
	// a suggestion.
	IsSuggestion *bool
	Activity     *string
	Location     *string
	Confidence   *float64
}

// ReplaceQueue clears the classifier queue and inserts fresh entries.
// Re-generating candidates is a deliberate reset; entries that were
// already processed in an earlier run are rebuilt unprocessed.
func (s *Store) ReplaceQueue(ctx context.Context, entries []QueueEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM classifier_queue"); err != nil {
			return fmt.Errorf("store: clear queue: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO classifier_queue (message_id, similarity) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.MessageID, e.Similarity); err != nil {
				return fmt.Errorf("store: enqueue message %d: %w", e.MessageID, err)
			}
		}
		return nil
	})
}

// PendingQueue returns unprocessed entries ordered by similarity
// descending, so the strongest candidates are classified first.
func (s *Store) PendingQueue(ctx context.Context) ([]QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, similarity
		FROM classifier_queue
		WHERE processed = 0
		ORDER BY similarity DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query pending queue: %w", err)
	}
	defer rows.Close()

	var out []QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.MessageID, &e.Similarity); err != nil {
			return nil, fmt.Errorf("store: scan queue entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordVerdict marks an entry processed and stores a positive
// verdict's extracted fields.
func (s *Store) RecordVerdict(ctx context.Context, messageID int64, activity, location *string, confidence float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE classifier_queue
		SET processed = 1,
		    is_suggestion = 1,
		    activity = ?,
		    location = ?,
		    confidence = ?
		WHERE message_id = ?`, activity, location, confidence, messageID)
	if err != nil {
		return fmt.Errorf("store: record verdict %d: %w", messageID, err)
	}
	return nil
}

// MarkProcessed marks an entry processed with no (or a negative)
// verdict. processed never goes back to 0.
func (s *Store) MarkProcessed(ctx context.Context, messageID int64, isSuggestion bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE classifier_queue
		SET processed = 1, is_suggestion = ?
		WHERE message_id = ?`, isSuggestion, messageID)
	if err != nil {
		return fmt.Errorf("store: mark processed %d: %w", messageID, err)
	}
	return nil
}

// PositiveVerdicts returns processed entries judged suggestions, with
// their extracted fields, ordered by message id.
func (s *Store) PositiveVerdicts(ctx context.Context) ([]QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, similarity, processed, is_suggestion, activity, location, confidence
		FROM classifier_queue
		WHERE is_suggestion = 1
		ORDER BY message_id`)
	if err != nil {
		return nil, fmt.Errorf("store: query verdicts: %w", err)
	}
	defer rows.Close()

	var out []QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.MessageID, &e.Similarity, &e.Processed, &e.IsSuggestion,
			&e.Activity, &e.Location, &e.Confidence); err != nil {
			return nil, fmt.Errorf("store: scan verdict: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// QueueEntryByID returns one queue entry for inspection.
func (s *Store) QueueEntryByID(ctx context.Context, messageID int64) (QueueEntry, error) {
	var e QueueEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, similarity, processed, is_suggestion, activity, location, confidence
		FROM classifier_queue
		WHERE message_id = ?`, messageID).
		Scan(&e.MessageID, &e.Similarity, &e.Processed, &e.IsSuggestion, &e.Activity, &e.Location, &e.Confidence)
	if err == sql.ErrNoRows {
		return QueueEntry{}, ErrNotFound
	}
	if err != nil {
		return QueueEntry{}, fmt.Errorf("store: queue entry %d: %w", messageID, err)
	}
	return e, nil
}
