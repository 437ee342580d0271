package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// The embedding cache is append-only: a vector is written at most once
// per message id and never invalidated. Absence means "not yet
// computed", so a failed batch simply leaves gaps for a later run.

// UnembeddedMessages returns messages that still need a vector:
// non-empty, not a media placeholder, and absent from the cache.
func (s *Store) UnembeddedMessages(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.timestamp, m.sender, m.content, m.has_media, COALESCE(m.media_type, '')
		FROM messages m
		LEFT JOIN embeddings e ON m.id = e.message_id
		WHERE e.message_id IS NULL
		  AND m.content != ''
		  AND m.has_media = 0
		ORDER BY m.id`)
	if err != nil {
		return nil, fmt.Errorf("store: query unembedded: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// PutEmbeddings stores vectors for the given message ids in one
// committed unit. Inserting an id that already has a vector is an
// error; callers only embed what UnembeddedMessages returned.
func (s *Store) PutEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("store: %d ids but %d vectors", len(ids), len(vectors))
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO embeddings (message_id, vector) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, id := range ids {
			if _, err := stmt.ExecContext(ctx, id, encodeVector(vectors[i])); err != nil {
				return fmt.Errorf("store: insert embedding %d: %w", id, err)
			}
		}
		return nil
	})
}

// Embedding is one cached vector keyed by message id.
type Embedding struct {
	MessageID int64
	Vector    []float32
}

// Embeddings returns every cached vector in message order.
func (s *Store) Embeddings(ctx context.Context) ([]Embedding, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT message_id, vector FROM embeddings ORDER BY message_id")
	if err != nil {
		return nil, fmt.Errorf("store: query embeddings: %w", err)
	}
	defer rows.Close()

	var out []Embedding
	for rows.Next() {
		var e Embedding
		var blob []byte
		if err := rows.Scan(&e.MessageID, &blob); err != nil {
			return nil, fmt.Errorf("store: scan embedding: %w", err)
		}
		e.Vector = decodeVector(blob)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Vectors are stored as little-endian float32 blobs.

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
