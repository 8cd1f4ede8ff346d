// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists extraction results in a small SQLite database so
// reprocessing identical input skips the extractors. Entries are evicted
// least-recently-used once the configured limit is exceeded.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/llamagraph/llamagraph/pkg/types"
)

const (
	dbFile            = "cache.db"
	defaultMaxEntries = 100
)

// Cache is an LRU cache backed by SQLite. Safe for use from a single
// process; the database file lives under the configured directory.
type Cache struct {
	db         *sql.DB
	maxEntries int
}

// Open creates or opens the cache database under cfg.Dir.
func Open(cfg types.CacheConfig) (*Cache, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	c := &Cache{db: db, maxEntries: maxEntries}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			accessed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_accessed ON entries(accessed_at)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached value for key, if present, and refreshes its
// recency.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM entries WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`UPDATE entries SET accessed_at = ? WHERE key = ?`,
		now(), key,
	)
	if err != nil {
		return nil, false, fmt.Errorf("touching cache entry: %w", err)
	}
	return value, true, nil
}

// Set stores a value under key, replacing any previous value, then prunes
// least-recently-used entries beyond the limit.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, accessed_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, accessed_at=excluded.accessed_at`,
		key, value, now(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return c.prune(ctx)
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

func (c *Cache) prune(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM entries WHERE key IN (
			SELECT key FROM entries ORDER BY accessed_at DESC, key LIMIT -1 OFFSET ?
		)`, c.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("pruning cache: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
