package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const snapshotKey = keyPrefix + "snapshot"

// SnapshotCache fronts another SnapshotStore with a Redis copy of the
// latest snapshot. Writes go to Next first; cache failures are logged and
// never fail the call.
type SnapshotCache struct {
	Next   application.SnapshotStore
	Client *redis.Client
	TTL    time.Duration
	Log    *zap.Logger
}

var _ application.SnapshotStore = (*SnapshotCache)(nil)

func NewSnapshotCache(next application.SnapshotStore, client *redis.Client, ttl time.Duration, log *zap.Logger) *SnapshotCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotCache{Next: next, Client: client, TTL: ttl, Log: log}
}

func (c *SnapshotCache) Load(ctx context.Context) (domain.Snapshot, error) {
	raw, err := c.Client.Get(ctx, snapshotKey).Bytes()
	switch {
	case err == nil:
		var snap domain.Snapshot
		jerr := json.Unmarshal(raw, &snap)
		if jerr == nil {
			return snap, nil
		}
		c.Log.Warn("snapshot_cache.decode_failed", zap.Error(jerr))
	case !errors.Is(err, redis.Nil):
		c.Log.Warn("snapshot_cache.get_failed", zap.Error(err))
	}

	snap, err := c.Next.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	c.put(ctx, snap)
	return snap, nil
}

func (c *SnapshotCache) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := c.Next.Save(ctx, snap); err != nil {
		return err
	}
	c.put(ctx, snap)
	return nil
}

func (c *SnapshotCache) MarkFailed(ctx context.Context, at time.Time, msg string, reauth bool) error {
	if err := c.Next.MarkFailed(ctx, at, msg, reauth); err != nil {
		return err
	}
	if err := c.Client.Del(ctx, snapshotKey).Err(); err != nil {
		c.Log.Warn("snapshot_cache.del_failed", zap.Error(err))
	}
	return nil
}

func (c *SnapshotCache) put(ctx context.Context, snap domain.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		c.Log.Warn("snapshot_cache.encode_failed", zap.Error(err))
		return
	}
	if err := c.Client.Set(ctx, snapshotKey, data, c.TTL).Err(); err != nil {
		c.Log.Warn("snapshot_cache.set_failed", zap.Error(err))
	}
}
