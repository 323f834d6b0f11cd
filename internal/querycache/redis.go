// internal/querycache/redis.go
package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"analytics-workers/internal/models"
)

// RedisStore keeps cache entries in Redis so multiple worker instances
// share one result cache. Entries are JSON-encoded result sets with
// the TTL delegated to Redis key expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing Redis client. All keys are namespaced
// under the given prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "querycache"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(fingerprint string) string {
	return s.prefix + ":" + fingerprint
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.ResultSet, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	var rs models.ResultSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = s.client.Del(ctx, s.key(key)).Err()
		return nil, false, nil
	}
	return &rs, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, rs *models.ResultSet, ttl time.Duration) error {
	raw, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}
