package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const statsKey = "review:stats"

// StatsCache shields the user table from repeated stat scans. A nil cache is
// a no-op.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context) (*domain.ReviewStats, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	b, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats domain.ReviewStats
	if err := json.Unmarshal(b, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, stats *domain.ReviewStats) error {
	if c == nil || c.client == nil {
		return nil
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey, b, c.ttl).Err()
}
