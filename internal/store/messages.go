package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Message is one transcript message. Immutable after ingest; the
// pipeline only reads it. IDs are dense ordinals in transcript order.
type Message struct {
	ID        int64
	Timestamp time.Time
	Sender    string
	Content   string
	HasMedia  bool
	MediaType string
}

// MessageURL is one outbound link carried by a message, tagged with
// its classified type (google_maps, airbnb, tiktok, ...).
type MessageURL struct {
	MessageID int64
	URL       string
	Type      string
}

// ReplaceMessages clears the message, url and embedding tables and
// inserts the given transcript. Embeddings are cleared too because
// they are keyed by message id and a re-ingest renumbers messages.
func (s *Store) ReplaceMessages(ctx context.Context, msgs []Message, urls []MessageURL) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"suggestions", "classifier_queue", "embeddings", "urls", "messages"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("store: clear %s: %w", table, err)
			}
		}
		msgStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO messages (id, timestamp, sender, content, has_media, media_type)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer msgStmt.Close()
		for _, m := range msgs {
			var mediaType any
			if m.MediaType != "" {
				mediaType = m.MediaType
			}
			if _, err := msgStmt.ExecContext(ctx, m.ID, m.Timestamp.Format(time.RFC3339),
				m.Sender, m.Content, m.HasMedia, mediaType); err != nil {
				return fmt.Errorf("store: insert message %d: %w", m.ID, err)
			}
		}
		urlStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO urls (message_id, url, url_type) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer urlStmt.Close()
		for _, u := range urls {
			if _, err := urlStmt.ExecContext(ctx, u.MessageID, u.URL, u.Type); err != nil {
				return fmt.Errorf("store: insert url for message %d: %w", u.MessageID, err)
			}
		}
		return nil
	})
}

// Messages returns all non-empty messages in transcript order.
func (s *Store) Messages(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, sender, content, has_media, COALESCE(media_type, '')
		FROM messages
		WHERE content != ''
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MessageByID returns one message, or ErrNotFound.
func (s *Store) MessageByID(ctx context.Context, id int64) (Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, sender, content, has_media, COALESCE(media_type, '')
		FROM messages
		WHERE id = ?`, id)
	var m Message
	var ts string
	if err := row.Scan(&m.ID, &ts, &m.Sender, &m.Content, &m.HasMedia, &m.MediaType); err != nil {
		if err == sql.ErrNoRows {
			return Message{}, ErrNotFound
		}
		return Message{}, fmt.Errorf("store: query message %d: %w", id, err)
	}
	m.Timestamp, _ = time.Parse(time.RFC3339, ts)
	return m, nil
}

// MessageWindow returns the messages with ids in [center-w, center+w],
// ordered by id. The center message is included if it exists.
func (s *Store) MessageWindow(ctx context.Context, center int64, w int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, sender, content, has_media, COALESCE(media_type, '')
		FROM messages
		WHERE id BETWEEN ? AND ?
		ORDER BY id`, center-int64(w), center+int64(w))
	if err != nil {
		return nil, fmt.Errorf("store: query message window: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MessageLinks returns, for every message that carries at least one
// link, the message paired with its links in insertion order.
type MessageLinks struct {
	Message Message
	Links   []MessageURL
}

// MessagesWithLinks returns messages joined with their classified links.
func (s *Store) MessagesWithLinks(ctx context.Context) ([]MessageLinks, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.timestamp, m.sender, m.content, m.has_media, COALESCE(m.media_type, ''),
		       u.url, u.url_type
		FROM messages m
		JOIN urls u ON m.id = u.message_id
		ORDER BY m.id, u.id`)
	if err != nil {
		return nil, fmt.Errorf("store: query messages with links: %w", err)
	}
	defer rows.Close()

	var out []MessageLinks
	for rows.Next() {
		var m Message
		var ts, u, ut string
		if err := rows.Scan(&m.ID, &ts, &m.Sender, &m.Content, &m.HasMedia, &m.MediaType, &u, &ut); err != nil {
			return nil, fmt.Errorf("store: scan message link: %w", err)
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		link := MessageURL{MessageID: m.ID, URL: u, Type: ut}
		if n := len(out); n > 0 && out[n-1].Message.ID == m.ID {
			out[n-1].Links = append(out[n-1].Links, link)
		} else {
			out = append(out, MessageLinks{Message: m, Links: []MessageURL{link}})
		}
	}
	return out, rows.Err()
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		var ts string
		if err := rows.Scan(&m.ID, &ts, &m.Sender, &m.Content, &m.HasMedia, &m.MediaType); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, m)
	}
	return out, rows.Err()
}
