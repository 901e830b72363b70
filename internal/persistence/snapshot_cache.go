package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wardline-health/staff-access-service/internal/authz"
)

const snapshotKey = "authz:settings:snapshot"

// SnapshotCache stores the serialized settings snapshot in Redis with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache returns nil when Redis is not configured.
func NewSnapshotCache(r *Redis, ttl time.Duration) *SnapshotCache {
	if r == nil || r.Client == nil || ttl <= 0 {
		return nil
	}
	return &SnapshotCache{client: r.Client, ttl: ttl}
}

// Get returns the cached snapshot; ok is false on a miss.
func (c *SnapshotCache) Get(ctx context.Context) (*authz.Snapshot, bool, error) {
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snapshot authz.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// Set writes the snapshot with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snapshot *authz.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot so the next read reloads it.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, snapshotKey).Err()
}
