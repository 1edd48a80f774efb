package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProfileCache keeps recently fetched Reddit profile snapshots so repeat
// reviews of the same account within the TTL don't burn API quota. A nil
// cache is a no-op.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func (c *ProfileCache) key(username string) string {
	return fmt.Sprintf("reddit:profile:%s", username)
}

// Get returns the cached snapshot, or nil on miss (a miss is not an error).
func (c *ProfileCache) Get(ctx context.Context, username string) (*domain.ProfileSnapshot, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	b, err := c.client.Get(ctx, c.key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.ProfileSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *ProfileCache) Set(ctx context.Context, username string, snap *domain.ProfileSnapshot) error {
	if c == nil || c.client == nil {
		return nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(username), b, c.ttl).Err()
}

// Invalidate removes the cached snapshot, e.g. after the local record is
// deleted because the account vanished upstream.
func (c *ProfileCache) Invalidate(ctx context.Context, username string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(username)).Err()
}
