package application

import (
	"context"
	"time"

	"avquotes-service/internal/domain"
)

// QuoteClient fetches one symbol's quote. Errors are one of
// *TransportError, *RateLimitedError, *ProviderError or *AuthError.
type QuoteClient interface {
	GlobalQuote(ctx context.Context, symbol domain.Symbol) (domain.Quote, error)
}

// SnapshotStore keeps the latest snapshot. Load returns an empty snapshot
// and no error when nothing was saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
	MarkFailed(ctx context.Context, at time.Time, msg string, reauth bool) error
}

type RefreshJobRepo interface {
	CreateQueued(ctx context.Context) (string, error)
	GetByID(ctx context.Context, id string) (domain.RefreshJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.RefreshStatus, errMsg *string) error
	ClaimQueued(ctx context.Context, limit int) ([]domain.RefreshJob, error)
}

type QuoteCycle interface {
	Run(ctx context.Context) (domain.QuoteSet, error)
}

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
