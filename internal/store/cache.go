package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CachedItem is one emitted-item cache row.
type CachedItem struct {
	Digest  string
	Backend string
	Path    string
	Kind    string
	RunID   string
}

// WasEmitted reports whether an item with this content digest was
// already rendered by the named backend.
func (s *Store) WasEmitted(ctx context.Context, digest, backend string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM items WHERE digest = ? AND backend = ?`, digest, backend).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: lookup %s: %w", digest, err)
	}
	return true, nil
}

// MarkEmitted records a rendered item. Re-marking the same digest for
// the same backend updates the row to the latest run; the translated
// form is identical by definition of the digest.
func (s *Store) MarkEmitted(ctx context.Context, item CachedItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (digest, backend, path, kind, run_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (digest, backend) DO UPDATE SET
			path = excluded.path,
			kind = excluded.kind,
			run_id = excluded.run_id`,
		item.Digest, item.Backend, item.Path, item.Kind, item.RunID)
	if err != nil {
		return fmt.Errorf("store: mark %s: %w", item.Digest, err)
	}
	return nil
}

// ItemsForRun lists the items recorded under one run, in path order.
func (s *Store) ItemsForRun(ctx context.Context, runID string) ([]CachedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT digest, backend, path, kind, run_id
		FROM items WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: items for run %s: %w", runID, err)
	}
	defer rows.Close()

	var items []CachedItem
	for rows.Next() {
		var it CachedItem
		if err := rows.Scan(&it.Digest, &it.Backend, &it.Path, &it.Kind, &it.RunID); err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
