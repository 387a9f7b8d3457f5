package application

import "context"

// IdempotencyStore deduplicates manual refresh requests by client key.
type IdempotencyStore interface {
	// TryReserve returns true if key was absent and is now reserved,
	// false if it was already used.
	TryReserve(ctx context.Context, key string) (bool, error)
}

// NoopIdempotency accepts every key; used when no backend is configured.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }
