package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/forkcast/nutrition/internal/domain"
)

func newTestSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), 0)
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestSQLiteCache_SetAndGet(t *testing.T) {
	cache := newTestSQLiteCache(t)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "search:butter"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}

	value := []byte(`[{"fdcId":173430}]`)
	if err := cache.Set(ctx, "search:butter", value, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cache.Get(ctx, "search:butter")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get() = %s, want %s", got, value)
	}

	// overwrite
	if err := cache.Set(ctx, "search:butter", []byte("[]"), time.Hour); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, _ = cache.Get(ctx, "search:butter")
	if string(got) != "[]" {
		t.Errorf("Get() after overwrite = %s, want []", got)
	}
}

func TestSQLiteCache_Expiration(t *testing.T) {
	cache := newTestSQLiteCache(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, "short", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Set(ctx, "forever", []byte("2"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() expired error = %v, want %v", err, domain.ErrCacheMiss)
	}
	if exists, _ := cache.Exists(ctx, "short"); exists {
		t.Errorf("Exists() = true for expired key")
	}
	if exists, _ := cache.Exists(ctx, "forever"); !exists {
		t.Errorf("Exists() = false for key without ttl")
	}

	removed, err := cache.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Purge() removed %d rows, want 1", removed)
	}
}

func TestSQLiteCache_Delete(t *testing.T) {
	cache := newTestSQLiteCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "nutrients:1", []byte("{}"), time.Hour)
	if err := cache.Delete(ctx, "nutrients:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if exists, _ := cache.Exists(ctx, "nutrients:1"); exists {
		t.Errorf("Exists() = true after delete")
	}
}

func TestSQLiteCache_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := NewSQLiteCache(path, 0)
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	if err := first.Set(ctx, "nutrients:746782", []byte(`{"calories":61}`), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_ = first.Close()

	second, err := NewSQLiteCache(path, 0)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "nutrients:746782")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != `{"calories":61}` {
		t.Errorf("Get() after reopen = %s", got)
	}
}

func countRows(t *testing.T, cache *SQLiteCache) int {
	t.Helper()
	var n int
	if err := cache.db.QueryRow(`SELECT COUNT(*) FROM cache`).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestSQLiteCache_PurgesExpiredRowsOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first, err := NewSQLiteCache(path, 0)
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	first.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_ = first.Set(ctx, "search:stale", []byte("[]"), time.Hour)
	_ = first.Set(ctx, "search:fresh", []byte("[]"), 0)
	_ = first.Close()

	second, err := NewSQLiteCache(path, 0)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()

	if n := countRows(t, second); n != 1 {
		t.Errorf("rows after reopen = %d, want 1", n)
	}
}

func TestSQLiteCache_PurgesExpiredRowsPeriodically(t *testing.T) {
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	defer cache.Close()

	// Already expired at insert time
	if _, err := cache.db.Exec(`INSERT INTO cache (key, value, expires_at) VALUES ('search:old', x'', 1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for countRows(t, cache) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expired row was not purged")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
