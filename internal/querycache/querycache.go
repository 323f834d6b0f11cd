// internal/querycache/querycache.go

// Package querycache memoizes query results for a bounded time window,
// keyed by a fingerprint of the canonical SQL text plus bound
// parameters. Two differently worded questions that resolve to the
// same SQL share one entry. Concurrent misses for the same fingerprint
// may both execute; the last writer wins, which is acceptable because
// both ran the identical statement.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"analytics-workers/internal/models"
	"analytics-workers/internal/sqlgen"
)

// Fingerprint hashes a statement's canonical form into a cache key.
func Fingerprint(stmt *sqlgen.Statement) string {
	sum := sha256.Sum256([]byte(stmt.Canonical()))
	return hex.EncodeToString(sum[:])
}

// Store is the storage backend behind the cache. Get returns
// (nil, false, nil) on a miss or an expired entry; backend failures
// surface as errors so the cache can fall through to execution.
type Store interface {
	Get(ctx context.Context, key string) (*models.ResultSet, bool, error)
	Set(ctx context.Context, key string, rs *models.ResultSet, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Executor runs a statement against the database on a cache miss.
type Executor func(ctx context.Context, stmt *sqlgen.Statement) (*models.ResultSet, error)

// Cache ties a store to a TTL.
type Cache struct {
	store Store
	ttl   time.Duration
}

// DefaultTTL bounds how stale a served result may be.
const DefaultTTL = 5 * time.Minute

// New builds a cache over the given store. A non-positive ttl falls
// back to DefaultTTL.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// GetOrExecute returns the cached result for stmt when present and
// fresh, otherwise runs executor and stores its result. Store failures
// never fail the query: a broken backend degrades to always-execute.
// The boolean reports whether the result came from the cache.
func (c *Cache) GetOrExecute(ctx context.Context, stmt *sqlgen.Statement, executor Executor) (*models.ResultSet, bool, error) {
	key := Fingerprint(stmt)

	if rs, ok, err := c.store.Get(ctx, key); err == nil && ok {
		return rs, true, nil
	}

	rs, err := executor(ctx, stmt)
	if err != nil {
		return nil, false, err
	}

	// Best effort: a failed write only costs a future re-execution.
	_ = c.store.Set(ctx, key, rs, c.ttl)
	return rs, false, nil
}

// Invalidate drops the entry for stmt, if any. Intended for catalog or
// schema reloads where cached shapes may no longer be valid.
func (c *Cache) Invalidate(ctx context.Context, stmt *sqlgen.Statement) error {
	return c.store.Delete(ctx, Fingerprint(stmt))
}
