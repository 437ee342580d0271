package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StatusPending is the initial review status of every suggestion. The
// pipeline never changes status; review and export tooling owns it.
const StatusPending = "pending"

// Suggestion is the canonical, persisted suggestion record. At most
// one exists per message id (enforced by the primary key). Type
// records which strategy last contributed the row.
type Suggestion struct {
	MessageID  int64
	Type       string
	Confidence float64
	Activity   *string
	Location   *string
	Latitude   *float64
	Longitude  *float64
	Status     string
}

// ReplaceSuggestions clears the canonical table and inserts the given
// rows. Only the merge engine's first pass uses this; it is the full
// rebuild that makes pass-one overwrite safe.
func (s *Store) ReplaceSuggestions(ctx context.Context, suggestions []Suggestion) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM suggestions"); err != nil {
			return fmt.Errorf("store: clear suggestions: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO suggestions (message_id, suggestion_type, confidence, activity, location, status)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sg := range suggestions {
			status := sg.Status
			if status == "" {
				status = StatusPending
			}
			if _, err := stmt.ExecContext(ctx, sg.MessageID, sg.Type, sg.Confidence,
				sg.Activity, sg.Location, status); err != nil {
				return fmt.Errorf("store: insert suggestion %d: %w", sg.MessageID, err)
			}
		}
		return nil
	})
}

// Suggestion returns the canonical row for a message id, or ErrNotFound.
func (s *Store) Suggestion(ctx context.Context, messageID int64) (Suggestion, error) {
	var sg Suggestion
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, suggestion_type, confidence, activity, location, latitude, longitude, status
		FROM suggestions
		WHERE message_id = ?`, messageID).
		Scan(&sg.MessageID, &sg.Type, &sg.Confidence, &sg.Activity, &sg.Location,
			&sg.Latitude, &sg.Longitude, &sg.Status)
	if err == sql.ErrNoRows {
		return Suggestion{}, ErrNotFound
	}
	if err != nil {
		return Suggestion{}, fmt.Errorf("store: suggestion %d: %w", messageID, err)
	}
	return sg, nil
}

// InsertSuggestion inserts a new canonical row.
func (s *Store) InsertSuggestion(ctx context.Context, sg Suggestion) error {
	status := sg.Status
	if status == "" {
		status = StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suggestions (message_id, suggestion_type, confidence, activity, location, latitude, longitude, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.MessageID, sg.Type, sg.Confidence, sg.Activity, sg.Location,
		sg.Latitude, sg.Longitude, status)
	if err != nil {
		return fmt.Errorf("store: insert suggestion %d: %w", sg.MessageID, err)
	}
	return nil
}

// UpdateSuggestion overwrites an existing canonical row with the
// merged record computed by the merge engine. Status, latitude and
// longitude are left untouched; the geocoding collaborator owns them.
func (s *Store) UpdateSuggestion(ctx context.Context, sg Suggestion) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suggestions
		SET suggestion_type = ?, confidence = ?, activity = ?, location = ?
		WHERE message_id = ?`,
		sg.Type, sg.Confidence, sg.Activity, sg.Location, sg.MessageID)
	if err != nil {
		return fmt.Errorf("store: update suggestion %d: %w", sg.MessageID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RankedSuggestion joins a suggestion with its source message for
// listing and export.
type RankedSuggestion struct {
	Suggestion
	Timestamp time.Time
	Sender    string
	Content   string
	URL       *string
	URLType   *string
}

// TopSuggestions returns suggestions at or above minConfidence joined
// with their messages, confidence descending then newest first.
// limit <= 0 means no limit.
func (s *Store) TopSuggestions(ctx context.Context, minConfidence float64, limit int) ([]RankedSuggestion, error) {
	q := `
		SELECT s.message_id, s.suggestion_type, s.confidence, s.activity, s.location,
		       s.latitude, s.longitude, s.status,
		       m.timestamp, m.sender, m.content,
		       (SELECT url FROM urls u WHERE u.message_id = m.id ORDER BY u.id LIMIT 1),
		       (SELECT url_type FROM urls u WHERE u.message_id = m.id ORDER BY u.id LIMIT 1)
		FROM suggestions s
		JOIN messages m ON s.message_id = m.id
		WHERE s.confidence >= ?
		ORDER BY s.confidence DESC, m.timestamp DESC`
	args := []any{minConfidence}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query top suggestions: %w", err)
	}
	defer rows.Close()

	var out []RankedSuggestion
	for rows.Next() {
		var r RankedSuggestion
		var ts string
		if err := rows.Scan(&r.MessageID, &r.Type, &r.Confidence, &r.Activity, &r.Location,
			&r.Latitude, &r.Longitude, &r.Status, &ts, &r.Sender, &r.Content, &r.URL, &r.URLType); err != nil {
			return nil, fmt.Errorf("store: scan ranked suggestion: %w", err)
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TypeCount is one row of the per-strategy breakdown.
type TypeCount struct {
	Type          string
	Count         int
	AvgConfidence float64
}

// TypeBreakdown returns suggestion counts grouped by provenance tag.
func (s *Store) TypeBreakdown(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT suggestion_type, COUNT(*), AVG(confidence)
		FROM suggestions
		GROUP BY suggestion_type
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query type breakdown: %w", err)
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count, &tc.AvgConfidence); err != nil {
			return nil, fmt.Errorf("store: scan type count: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// SuggestionsNeedingGeocode returns rows with location or activity
// text but no coordinates yet.
func (s *Store) SuggestionsNeedingGeocode(ctx context.Context) ([]Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, suggestion_type, confidence, activity, location, latitude, longitude, status
		FROM suggestions
		WHERE latitude IS NULL
		  AND (location IS NOT NULL OR activity IS NOT NULL)
		ORDER BY confidence DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query ungeocoded: %w", err)
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var sg Suggestion
		if err := rows.Scan(&sg.MessageID, &sg.Type, &sg.Confidence, &sg.Activity,
			&sg.Location, &sg.Latitude, &sg.Longitude, &sg.Status); err != nil {
			return nil, fmt.Errorf("store: scan ungeocoded: %w", err)
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// SetCoordinates writes coordinates onto a suggestion and fills the
// location text only if it is currently null.
func (s *Store) SetCoordinates(ctx context.Context, messageID int64, lat, lng float64, location string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE suggestions
		SET latitude = ?, longitude = ?, location = COALESCE(location, ?)
		WHERE message_id = ?`, lat, lng, location, messageID)
	if err != nil {
		return fmt.Errorf("store: set coordinates %d: %w", messageID, err)
	}
	return nil
}
