package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"avquotes-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Settings carries the parts of the configuration the read side needs.
type Settings struct {
	Symbols  []domain.Symbol
	Fields   []domain.FieldID
	Decimals int
	// Entry is the already redacted configuration shown in diagnostics.
	Entry map[string]any
}

type QuoteService struct {
	cycle    QuoteCycle
	store    SnapshotStore
	jobs     RefreshJobRepo
	idem     IdempotencyStore
	settings Settings
	clock    Clock
	log      *zap.Logger

	group      singleflight.Group
	mu         sync.Mutex
	failureLog LogThrottle
}

type Option func(*QuoteService)

func WithClock(c Clock) Option            { return func(s *QuoteService) { s.clock = c } }
func WithLogger(l *zap.Logger) Option     { return func(s *QuoteService) { s.log = l } }
func WithSettings(st Settings) Option     { return func(s *QuoteService) { s.settings = st } }
func WithJobs(jobs RefreshJobRepo) Option { return func(s *QuoteService) { s.jobs = jobs } }
func WithIdempotency(i IdempotencyStore) Option {
	return func(s *QuoteService) { s.idem = i }
}

func NewQuoteService(cycle QuoteCycle, store SnapshotStore, opts ...Option) *QuoteService {
	s := &QuoteService{cycle: cycle, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	return s
}

func (s *QuoteService) Settings() Settings { return s.settings }

// Refresh runs one fetch cycle and publishes its result. Concurrent callers
// share the cycle already in flight.
func (s *QuoteService) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *QuoteService) refresh(ctx context.Context) error {
	started := s.clock.Now()
	set, err := s.cycle.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		reauth := errors.Is(err, ErrAuth)
		if merr := s.store.MarkFailed(context.WithoutCancel(ctx), started, err.Error(), reauth); merr != nil {
			s.log.Warn("refresh.mark_failed_error", zap.Error(merr))
		}
		s.logFailure(err, reauth)
		return err
	}

	snap := domain.Snapshot{
		Symbols:           set,
		UpdatedAt:         s.clock.Now(),
		LastAttemptAt:     started,
		LastUpdateSuccess: true,
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.mu.Lock()
	s.failureLog.Success()
	s.mu.Unlock()
	s.log.Info("refresh.done", zap.Int("symbols", len(set)), zap.Int("configured", len(s.settings.Symbols)))
	return nil
}

func (s *QuoteService) logFailure(err error, reauth bool) {
	if reauth {
		s.log.Error("refresh.reauth_required", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureLog.Failure(s.log, "refresh.failed", zap.Error(err))
}

func (s *QuoteService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Symbols == nil {
		snap.Symbols = domain.QuoteSet{}
	}
	return snap, nil
}

func (s *QuoteService) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	q, ok := snap.Quote(domain.NormalizeSymbol(symbol))
	if !ok {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *QuoteService) RequestRefresh(ctx context.Context, idem *string) (string, error) {
	if s.jobs == nil {
		return "", errors.New("refresh jobs are not configured")
	}
	if idem != nil && *idem != "" {
		ok, err := s.idem.TryReserve(ctx, "refresh:"+*idem)
		if err != nil {
			return "", fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !ok {
			return "", ErrConflict
		}
	}
	return s.jobs.CreateQueued(ctx)
}

func (s *QuoteService) GetRefresh(ctx context.Context, id string) (domain.RefreshJob, error) {
	if s.jobs == nil {
		return domain.RefreshJob{}, ErrNotFound
	}
	return s.jobs.GetByID(ctx, id)
}

// ProcessRefresh runs the cycle on behalf of a queued refresh job and
// records the outcome on the job.
func (s *QuoteService) ProcessRefresh(ctx context.Context, id string) error {
	if err := s.jobs.UpdateStatus(ctx, id, domain.RefreshStatusProcessing, nil); err != nil {
		return err
	}
	if err := s.Refresh(ctx); err != nil {
		msg := err.Error()
		if uerr := s.jobs.UpdateStatus(context.WithoutCancel(ctx), id, domain.RefreshStatusFailed, &msg); uerr != nil {
			s.log.Warn("refresh.job_status_error", zap.String("job_id", id), zap.Error(uerr))
		}
		return err
	}
	return s.jobs.UpdateStatus(ctx, id, domain.RefreshStatusDone, nil)
}

// ClaimRefreshJobs hands queued jobs to a worker.
func (s *QuoteService) ClaimRefreshJobs(ctx context.Context, limit int) ([]domain.RefreshJob, error) {
	if s.jobs == nil {
		return nil, nil
	}
	return s.jobs.ClaimQueued(ctx, limit)
}

type Diagnostics struct {
	Entry map[string]any  `json:"entry"`
	Data  domain.Snapshot `json:"data"`
}

func (s *QuoteService) Diagnostics(ctx context.Context) (Diagnostics, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Diagnostics{}, err
	}
	return Diagnostics{Entry: s.settings.Entry, Data: snap}, nil
}
