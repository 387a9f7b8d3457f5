package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"avquotes-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2024, 5, 17, 20, 0, 0, 0, time.UTC)

type cycleFunc func(ctx context.Context) (domain.QuoteSet, error)

func (f cycleFunc) Run(ctx context.Context) (domain.QuoteSet, error) { return f(ctx) }

func newService(c QuoteCycle, store SnapshotStore, opts ...Option) *QuoteService {
	base := []Option{
		WithClock(fakeClock{t: testNow}),
		WithSettings(Settings{
			Symbols:  []domain.Symbol{"AAPL", "MSFT"},
			Fields:   domain.DefaultFields,
			Decimals: 2,
			Entry:    map[string]any{"api_key": "**REDACTED**", "symbols": "AAPL,MSFT"},
		}),
	}
	return NewQuoteService(c, store, append(base, opts...)...)
}

func Test_Refresh_SavesSnapshot(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		return domain.QuoteSet{"AAPL": quoteFor("AAPL", "189.8400")}, nil
	}), store)

	require.NoError(t, svc.Refresh(context.Background()))
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.True(t, snap.LastUpdateSuccess)
	require.Equal(t, testNow, snap.UpdatedAt)
	require.Contains(t, snap.Symbols, domain.Symbol("AAPL"))
}

func Test_Refresh_FailureKeepsLastGoodSet(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	fail := false
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		if fail {
			return nil, ErrAllSymbolsFailed
		}
		return domain.QuoteSet{"AAPL": quoteFor("AAPL", "189.8400")}, nil
	}), store)
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))
	fail = true
	err := svc.Refresh(ctx)
	require.ErrorIs(t, err, ErrAllSymbolsFailed)
	// a second failure still reports failure
	require.ErrorIs(t, svc.Refresh(ctx), ErrAllSymbolsFailed)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.False(t, snap.LastUpdateSuccess)
	require.True(t, snap.Stale())
	require.False(t, snap.ReauthRequired)
	require.Equal(t, "189.8400", snap.Symbols["AAPL"][domain.KeyPrice])

	r, err := svc.Reading(ctx, "aapl", "price")
	require.NoError(t, err)
	require.True(t, r.Available)
	require.InDelta(t, 189.84, r.Value.Number, 1e-9)
}

func Test_Refresh_PartialSuccessReplacesWholesale(t *testing.T) {
	t.Parallel()
	store := &fakeStore{snap: domain.Snapshot{Symbols: domain.QuoteSet{
		"AAPL": quoteFor("AAPL", "1"),
		"MSFT": quoteFor("MSFT", "2"),
	}}}
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		return domain.QuoteSet{"AAPL": quoteFor("AAPL", "3")}, nil
	}), store)

	require.NoError(t, svc.Refresh(context.Background()))
	_, err := svc.Quote(context.Background(), "MSFT")
	require.ErrorIs(t, err, ErrNotFound)
	q, err := svc.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	require.Equal(t, "3", q[domain.KeyPrice])
}

func Test_Refresh_AuthMarksReauth(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		return nil, &AuthError{Message: "the apikey parameter is invalid"}
	}), store)

	err := svc.Refresh(context.Background())
	require.ErrorIs(t, err, ErrAuth)
	snap, _ := svc.Snapshot(context.Background())
	require.True(t, snap.ReauthRequired)
	require.Equal(t, testNow, snap.LastAttemptAt)
}

func Test_Refresh_CoalescesConcurrentCallers(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	release := make(chan struct{})
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		runs.Add(1)
		<-release
		return domain.QuoteSet{"AAPL": quoteFor("AAPL", "1")}, nil
	}), &fakeStore{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Refresh(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	require.Equal(t, int32(1), runs.Load())
}

func Test_Reading_Unavailable(t *testing.T) {
	t.Parallel()
	svc := newService(cycleFunc(nil), &fakeStore{})
	r, err := svc.Reading(context.Background(), "MSFT", "change_percent")
	require.NoError(t, err)
	require.False(t, r.Available)
	require.Nil(t, r.Attributes)
	require.Equal(t, "avquotes_MSFT_change_percent", r.EntityID)
	require.Equal(t, "MSFT Change Percent", r.Name)
	require.Equal(t, "%", r.Unit)
}

func Test_Reading_UnknownSymbolOrField(t *testing.T) {
	t.Parallel()
	svc := newService(cycleFunc(nil), &fakeStore{})
	_, err := svc.Reading(context.Background(), "TSLA", "price")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Reading(context.Background(), "AAPL", "volume") // not enabled
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Reading(context.Background(), "AAPL", "bogus")
	require.ErrorIs(t, err, ErrNotFound)
}

func Test_Readings_AttributesAndRounding(t *testing.T) {
	t.Parallel()
	store := &fakeStore{snap: domain.Snapshot{Symbols: domain.QuoteSet{"AAPL": quoteFor("AAPL", "189.8450")}}}
	svc := newService(cycleFunc(nil), store)

	rs, err := svc.Readings(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 6)
	price := rs[0]
	require.Equal(t, domain.FieldPrice, price.Field)
	require.InDelta(t, 189.85, price.Value.Number, 1e-9)
	require.Equal(t, map[string]string{"last_refreshed": "2024-05-17", "symbol": "AAPL"}, price.Attributes)
	pct := rs[2]
	require.InDelta(t, 0.26, pct.Value.Number, 1e-9)
	require.False(t, rs[3].Available) // MSFT never fetched
}

func Test_Readings_StoreError(t *testing.T) {
	t.Parallel()
	svc := newService(cycleFunc(nil), &fakeStore{err: errors.New("db down")})
	_, err := svc.Readings(context.Background())
	require.Error(t, err)
}

func Test_RequestRefresh_Idempotency(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	svc := newService(cycleFunc(nil), &fakeStore{}, WithJobs(jobs), WithIdempotency(&fakeIdem{}))
	key := "ik-1"

	id, err := svc.RequestRefresh(context.Background(), &key)
	require.NoError(t, err)
	require.Equal(t, domain.RefreshStatusQueued, jobs.jobs[id].Status)

	_, err = svc.RequestRefresh(context.Background(), &key)
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.RequestRefresh(context.Background(), nil)
	require.NoError(t, err)
}

func Test_ProcessRefresh_RecordsOutcome(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	fail := false
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		if fail {
			return nil, ErrAllSymbolsFailed
		}
		return domain.QuoteSet{"AAPL": quoteFor("AAPL", "1")}, nil
	}), &fakeStore{}, WithJobs(jobs))
	ctx := context.Background()

	id, err := svc.RequestRefresh(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, svc.ProcessRefresh(ctx, id))
	job, err := svc.GetRefresh(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.RefreshStatusDone, job.Status)

	fail = true
	id2, _ := svc.RequestRefresh(ctx, nil)
	require.Error(t, svc.ProcessRefresh(ctx, id2))
	job, _ = svc.GetRefresh(ctx, id2)
	require.Equal(t, domain.RefreshStatusFailed, job.Status)
	require.NotNil(t, job.Error)
}

func Test_ProcessRefresh_StatusWriteFailureIsLogged(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.WarnLevel)
	writeErr := errors.New("connection reset")
	jobs := &fakeJobs{failOn: map[domain.RefreshStatus]error{domain.RefreshStatusFailed: writeErr}}
	svc := newService(cycleFunc(func(context.Context) (domain.QuoteSet, error) {
		return nil, ErrAllSymbolsFailed
	}), &fakeStore{}, WithJobs(jobs), WithLogger(zap.New(core)))
	ctx := context.Background()

	id, err := svc.RequestRefresh(ctx, nil)
	require.NoError(t, err)
	require.ErrorIs(t, svc.ProcessRefresh(ctx, id), ErrAllSymbolsFailed)

	entries := logs.FilterMessage("refresh.job_status_error").All()
	require.Len(t, entries, 1)
	require.Equal(t, id, entries[0].ContextMap()["job_id"])
	require.Equal(t, writeErr.Error(), entries[0].ContextMap()["error"])
}

func Test_Diagnostics(t *testing.T) {
	t.Parallel()
	store := &fakeStore{snap: domain.Snapshot{Symbols: domain.QuoteSet{"AAPL": quoteFor("AAPL", "1")}}}
	svc := newService(cycleFunc(nil), store)
	d, err := svc.Diagnostics(context.Background())
	require.NoError(t, err)
	require.Equal(t, "**REDACTED**", d.Entry["api_key"])
	require.Contains(t, d.Data.Symbols, domain.Symbol("AAPL"))
}
