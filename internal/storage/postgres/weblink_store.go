package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

const recordColumns = `id, url, version, title, description, keywords, author, status_code, content_hash, snapshot_uri, inspected_at`

// WebLinks returns the records for url ordered by version descending.
func (s *Store) WebLinks(ctx context.Context, url string, limit int) ([]weblink.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE url = $1 ORDER BY version DESC`, recordColumns, s.table)
	args := []any{url}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weblinks: %w", err)
	}
	defer rows.Close()

	var records []weblink.Record
	for rows.Next() {
		var rec weblink.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.URL,
			&rec.Version,
			&rec.Title,
			&rec.Description,
			&rec.Keywords,
			&rec.Author,
			&rec.StatusCode,
			&rec.ContentHash,
			&rec.SnapshotURI,
			&rec.InspectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan weblink: %w", err)
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
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.table, recordColumns)

	args := []any{
		record.ID,
		record.URL,
		record.Version,
		record.Title,
		record.Description,
		record.Keywords,
		record.Author,
		record.StatusCode,
		record.ContentHash,
		record.SnapshotURI,
		record.InspectedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert weblink: %w", err)
	}
	return nil
}
