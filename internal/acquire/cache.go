// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache stores extracted page text in SQLite, keyed by URL. It holds page
// text only; queries and answers are never written.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenCache opens or creates the cache database at path. Entries older than
// ttl are treated as misses; ttl <= 0 keeps entries fresh forever.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// Workers share one connection; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, ttl: ttl, now: time.Now}
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
		`CREATE TABLE IF NOT EXISTS pages (
			url TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached text for url when a fresh entry exists.
func (c *Cache) Get(ctx context.Context, url string) (string, bool, error) {
	var (
		text      string
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT text, fetched_at FROM pages WHERE url = ?`, url,
	).Scan(&text, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(0, fetchedAt)) > c.ttl {
		return "", false, nil
	}
	return text, true, nil
}

// Put stores text for url, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, url, text string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO pages (url, text, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET text = excluded.text, fetched_at = excluded.fetched_at`,
		url, text, c.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Prune deletes expired entries and reports how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).UnixNano()
	res, err := c.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}
