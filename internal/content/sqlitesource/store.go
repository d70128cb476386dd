// Package sqlitesource serves content records from a SQLite database.
package sqlitesource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS funds (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL DEFAULT '',
	ticker TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	manager_id TEXT NOT NULL DEFAULT '',
	excluded INTEGER NOT NULL DEFAULT 0,
	inception_date TEXT NOT NULL DEFAULT '',
	expense_ratio REAL NOT NULL DEFAULT 0,
	aum REAL NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fund_categories (fund_id TEXT NOT NULL, category_id TEXT NOT NULL, position INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS fund_tags (fund_id TEXT NOT NULL, tag_id TEXT NOT NULL, position INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS fund_legacy_slugs (fund_id TEXT NOT NULL, slug TEXT NOT NULL, position INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '', updated_at TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS managers (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL DEFAULT '', bio TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '', updated_at TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS team_members (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL DEFAULT '', role TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '', updated_at TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS comparisons (
	id TEXT PRIMARY KEY, fund_a_id TEXT NOT NULL, fund_b_id TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL
);
`

// Store is a content source backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create database directory").
				Fatal().WithContext("path", path).Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Name() string { return "sqlite" }

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func queryError(err error, table string) error {
	b := foundationerrors.WrapError(err, foundationerrors.CategoryContent, "query content table").WithContext("table", table)
	// Lock contention is the only transient condition worth retrying locally.
	if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "SQLITE_BUSY") {
		b = b.Retryable()
	}
	return b.Build()
}
