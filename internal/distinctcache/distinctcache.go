// internal/distinctcache/distinctcache.go

// Package distinctcache caches the distinct values of the fact table's
// categorical columns. The value lists enrich classifier hints so the
// service grounds its verdict in the column vocabulary that actually
// exists instead of guessing spellings.
package distinctcache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/sqlgen"
)

const (
	// DefaultTTL bounds how stale a cached value list may be.
	DefaultTTL = 6 * time.Hour
	// DefaultLimit caps the values fetched per column.
	DefaultLimit = 100
)

type entry struct {
	values    []string
	fetchedAt time.Time
}

// Cache lazily fetches and memoizes distinct column values. Safe for
// concurrent use.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	limit  int
	logger logger.Logger
	nowFn  func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// New builds a cache over db. A non-positive ttl falls back to
// DefaultTTL.
func New(db *sql.DB, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		db:      db,
		ttl:     ttl,
		limit:   DefaultLimit,
		logger:  log.WithFields(map[string]interface{}{"component": "distinctcache"}),
		nowFn:   time.Now,
		entries: make(map[string]entry),
	}
}

// Values returns the distinct values of an allowlisted categorical
// column, fetching on first use and after TTL expiry. When a refresh
// fails and a stale list exists, the stale list is served; only a
// column with no usable list at all surfaces the error.
func (c *Cache) Values(ctx context.Context, column string) ([]string, error) {
	col, ok := sqlgen.TableSchema[column]
	if !ok {
		return nil, fmt.Errorf("column %q is not in the fact table allowlist", column)
	}
	if !col.Categorical {
		return nil, fmt.Errorf("column %q is not categorical", column)
	}

	c.mu.RLock()
	e, cached := c.entries[column]
	c.mu.RUnlock()
	if cached && c.nowFn().Sub(e.fetchedAt) < c.ttl {
		return e.values, nil
	}

	values, err := c.fetch(ctx, column)
	if err != nil {
		if cached {
			c.logger.Warn("distinct refresh failed, serving stale values", map[string]interface{}{
				"column": column,
				"error":  err.Error(),
			})
			return e.values, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[column] = entry{values: values, fetchedAt: c.nowFn()}
	c.mu.Unlock()
	return values, nil
}

// fetch loads the value list. The column name comes from the schema
// allowlist, never from user text.
func (c *Cache) fetch(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
		column, sqlgen.FactTable, column, c.limit,
	)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v interface{}
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("distinct %s: %w", column, err)
		}
		if v == nil {
			continue
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		s := fmt.Sprintf("%v", v)
		if s != "" {
			values = append(values, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	return values, nil
}
