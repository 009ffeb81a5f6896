// Package sqlite persists weblink records in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

const schema = `
CREATE TABLE IF NOT EXISTS weblinks (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	version INTEGER NOT NULL,
	title TEXT,
	description TEXT,
	keywords TEXT,
	author TEXT,
	status_code INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	snapshot_uri TEXT NOT NULL DEFAULT '',
	inspected_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS weblinks_url_version_idx ON weblinks (url, version DESC);
`

// Store implements weblink.RecordStore on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store.sqlite.path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WebLinks returns the records for url ordered by version descending.
func (s *Store) WebLinks(ctx context.Context, url string, limit int) ([]weblink.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, url, version, title, description, keywords, author, status_code, content_hash, snapshot_uri, inspected_at
FROM weblinks WHERE url = ? ORDER BY version DESC LIMIT ?`, url, limit)
	if err != nil {
		return nil, fmt.Errorf("query weblinks: %w", err)
	}
	defer rows.Close()

	var records []weblink.Record
	for rows.Next() {
		var (
			rec                                  weblink.Record
			title, description, keywords, author sql.NullString
			inspectedAt                          string
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Version, &title, &description, &keywords, &author,
			&rec.StatusCode, &rec.ContentHash, &rec.SnapshotURI, &inspectedAt); err != nil {
			return nil, fmt.Errorf("scan weblink: %w", err)
		}
		rec.Title = fromNull(title)
		rec.Description = fromNull(description)
		rec.Keywords = fromNull(keywords)
		rec.Author = fromNull(author)
		if rec.InspectedAt, err = time.Parse(time.RFC3339Nano, inspectedAt); err != nil {
			return nil, fmt.Errorf("parse inspected_at %q: %w", inspectedAt, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weblinks: %w", err)
	}
	return records, nil
}

// SaveWebLink inserts record.
func (s *Store) SaveWebLink(ctx context.Context, record weblink.Record) error {
	if record.ID == "" {
		return errors.New("record id is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO weblinks (id, url, version, title, description, keywords, author, status_code, content_hash, snapshot_uri, inspected_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.URL,
		record.Version,
		toNull(record.Title),
		toNull(record.Description),
		toNull(record.Keywords),
		toNull(record.Author),
		record.StatusCode,
		record.ContentHash,
		record.SnapshotURI,
		record.InspectedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert weblink: %w", err)
	}
	return nil
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
