// Package snapshot reads and writes a self-contained SQLite copy of the
// embedded scheme corpus. A snapshot file lets the server answer queries
// with the in-memory index when no Postgres is available.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/index"
)

const schema = `
CREATE TABLE IF NOT EXISTS schemes (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT '',
    department TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    embedding BLOB NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schemes_position ON schemes(position);
`

// Write stores the corpus entries in a SQLite file at path, replacing any
// previous contents.
func Write(ctx context.Context, path string, entries []index.Entry) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM schemes"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	for _, e := range entries {
		s := e.Scheme
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schemes (id, source_id, title, description, category, state, department, link, position, embedding, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.SourceID, s.Title, s.Description, s.Category, s.State, s.Department, s.Link,
			s.Position, encodeVector(e.Vector), s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to write scheme %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Read loads all corpus entries from a SQLite file in position order.
func Read(ctx context.Context, path string) ([]index.Entry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, source_id, title, description, category, state, department, link, position, embedding, created_at, updated_at
		 FROM schemes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	var entries []index.Entry
	for rows.Next() {
		var (
			s         domain.SchemeRecord
			blob      []byte
			createdAt time.Time
			updatedAt time.Time
		)
		err := rows.Scan(&s.ID, &s.SourceID, &s.Title, &s.Description, &s.Category, &s.State,
			&s.Department, &s.Link, &s.Position, &blob, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		vector, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode vector for scheme %s: %w", s.ID, err)
		}

		s.CreatedAt = createdAt
		s.UpdatedAt = updatedAt
		s.Embedded = true
		entries = append(entries, index.Entry{Scheme: s, Vector: vector})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	return entries, nil
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
