package redisstore

import (
	"context"
	"time"

	"avquotes-service/internal/application"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore reserves client keys with SETNX so a refresh request
// key can only be used once per TTL.
type IdempotencyStore struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ application.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{Client: client, TTL: ttl}
}

func (s *IdempotencyStore) TryReserve(ctx context.Context, key string) (bool, error) {
	return s.Client.SetNX(ctx, keyPrefix+"idem:"+key, "1", s.TTL).Result()
}
