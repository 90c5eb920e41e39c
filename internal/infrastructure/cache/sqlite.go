package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forkcast/nutrition/internal/domain"
)

// SQLiteCache persists lookup payloads in a single-table SQLite database so
// reference food data survives restarts
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSQLiteCache opens (or creates) the database at dbPath. Expired rows are
// purged on open and then every purgeInterval (10 minutes when zero).
func NewSQLiteCache(dbPath string, purgeInterval time.Duration) (*SQLiteCache, error) {
	if purgeInterval <= 0 {
		purgeInterval = defaultCleanupInterval
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	cache := &SQLiteCache{
		db:   db,
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := cache.Purge(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	go cache.purgeExpired(purgeInterval)

	return cache, nil
}

func (c *SQLiteCache) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS cache (
        key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        expires_at INTEGER NOT NULL DEFAULT 0
    );

    CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache(expires_at);
    `

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close stops the purge loop and closes the database
func (c *SQLiteCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return c.db.Close()
}

// purgeExpired deletes expired rows periodically until Close
func (c *SQLiteCache) purgeExpired(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = c.Purge(context.Background())
		case <-c.stop:
			return
		}
	}
}

// Get retrieves a value; missing and expired keys are ErrCacheMiss
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	if c.expired(expiresAt) {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

// Set upserts value with TTL; a non-positive ttl never expires
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}

	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
    `, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Exists checks if a key is present and not expired
func (c *SQLiteCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Purge deletes every expired row and returns how many were removed
func (c *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM cache WHERE expires_at > 0 AND expires_at < ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) expired(expiresAt int64) bool {
	return expiresAt > 0 && c.now().UnixNano() > expiresAt
}
