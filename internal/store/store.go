// Package store is the durable translation cache and run audit log.
//
// SQLite with WAL mode. Item rows key on the content digest computed
// over canonical JSON, so a cache hit means the item's translated form
// is byte-identical to a previous run's and the backend already
// rendered it. Run rows make every dispatch auditable: unit, backend,
// manifest digest, engine version.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store wraps the cache database. Single writer; reads are concurrent
// under WAL.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path. Idempotent:
// pragmas and schema apply on every open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent unit workers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("store: %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("store: get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("store: database schema v%d is newer than this binary supports (v%d)",
			version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("store: set user_version: %w", err)
	}
	return nil
}

// Run is one recorded dispatch.
type Run struct {
	ID             string
	Unit           string
	Backend        string
	ManifestDigest string
	EngineVersion  string
	SchemaVersion  int
	CreatedAt      string
}

// RecordRun inserts the audit row for a completed dispatch.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, unit, backend, manifest_digest, engine_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Unit, r.Backend, r.ManifestDigest, r.EngineVersion, r.SchemaVersion)
	if err != nil {
		return fmt.Errorf("store: record run %s: %w", r.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, unit, backend, manifest_digest, engine_version, schema_version, created_at
		FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Unit, &r.Backend, &r.ManifestDigest,
			&r.EngineVersion, &r.SchemaVersion, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
