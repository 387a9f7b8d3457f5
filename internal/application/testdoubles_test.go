package application

import (
	"context"
	"sync"
	"time"

	"avquotes-service/internal/domain"
)

type fakeResult struct {
	quote domain.Quote
	err   error
}

type fakeClient struct {
	mu      sync.Mutex
	results map[domain.Symbol]fakeResult
	calls   []domain.Symbol
}

func (f *fakeClient) GlobalQuote(_ context.Context, s domain.Symbol) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
	r, ok := f.results[s]
	if !ok {
		return domain.Quote{domain.KeySymbol: string(s), domain.KeyPrice: "1.0000"}, nil
	}
	return r.quote, r.err
}

type fakeStore struct {
	mu   sync.Mutex
	snap domain.Snapshot
	err  error
}

func (f *fakeStore) Load(context.Context) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	return f.snap, nil
}

func (f *fakeStore) Save(_ context.Context, s domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, at time.Time, msg string, reauth bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.LastAttemptAt = at
	f.snap.LastUpdateSuccess = false
	f.snap.LastError = msg
	f.snap.ReauthRequired = reauth
	return nil
}

type fakeJobs struct {
	jobs map[string]domain.RefreshJob
	n    int
	// failOn makes UpdateStatus reject writes of that status.
	failOn map[domain.RefreshStatus]error
}

func (f *fakeJobs) CreateQueued(context.Context) (string, error) {
	if f.jobs == nil {
		f.jobs = map[string]domain.RefreshJob{}
	}
	f.n++
	id := "refresh-" + string(rune('0'+f.n))
	f.jobs[id] = domain.RefreshJob{ID: id, Status: domain.RefreshStatusQueued}
	return id, nil
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (domain.RefreshJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return domain.RefreshJob{}, ErrNotFound
	}
	return j, nil
}

func (f *fakeJobs) UpdateStatus(_ context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	if err := f.failOn[st]; err != nil {
		return err
	}
	j, ok := f.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status, j.Error = st, errMsg
	f.jobs[id] = j
	return nil
}

func (f *fakeJobs) ClaimQueued(_ context.Context, limit int) ([]domain.RefreshJob, error) {
	var out []domain.RefreshJob
	for id, j := range f.jobs {
		if j.Status != domain.RefreshStatusQueued {
			continue
		}
		j.Status = domain.RefreshStatusProcessing
		f.jobs[id] = j
		out = append(out, j)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleep) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

func quoteFor(sym, price string) domain.Quote {
	return domain.Quote{
		domain.KeySymbol:           sym,
		domain.KeyPrice:            price,
		domain.KeyChange:           "0.5000",
		domain.KeyChangePercent:    "0.2641%",
		domain.KeyLatestTradingDay: "2024-05-17",
	}
}
