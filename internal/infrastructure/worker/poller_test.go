package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"

	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu        sync.Mutex
	refreshes int
	processed []string
	queued    []domain.RefreshJob
	refreshFn func(n int) error
	processFn func(id string) error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.mu.Lock()
	f.refreshes++
	n := f.refreshes
	fn := f.refreshFn
	f.mu.Unlock()
	if fn != nil {
		return fn(n)
	}
	return nil
}

func (f *fakeRefresher) ClaimRefreshJobs(_ context.Context, limit int) ([]domain.RefreshJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queued) > limit {
		out := f.queued[:limit]
		f.queued = f.queued[limit:]
		return out, nil
	}
	out := f.queued
	f.queued = nil
	return out, nil
}

func (f *fakeRefresher) ProcessRefresh(_ context.Context, id string) error {
	f.mu.Lock()
	f.processed = append(f.processed, id)
	fn := f.processFn
	f.mu.Unlock()
	if fn != nil {
		return fn(id)
	}
	return nil
}

func (f *fakeRefresher) counts() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, append([]string(nil), f.processed...)
}

func run(t *testing.T, p *Poller) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()
	return cancel, done
}

func TestPoller_RefreshesImmediatelyAndOnSchedule(t *testing.T) {
	f := &fakeRefresher{}
	p := &Poller{Service: f, ScanEvery: 20 * time.Millisecond, PollEvery: time.Hour}
	cancel, done := run(t, p)

	require.Eventually(t, func() bool {
		n, _ := f.counts()
		return n >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_FirstRefreshBeforeInterval(t *testing.T) {
	f := &fakeRefresher{}
	p := &Poller{Service: f, ScanEvery: time.Hour, PollEvery: time.Hour}
	_, _ = run(t, p)

	require.Eventually(t, func() bool {
		n, _ := f.counts()
		return n == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPoller_StopsOnAuthError(t *testing.T) {
	f := &fakeRefresher{refreshFn: func(n int) error {
		if n == 2 {
			return &application.AuthError{Message: "the apikey parameter is invalid"}
		}
		return nil
	}}
	p := &Poller{Service: f, ScanEvery: 10 * time.Millisecond, PollEvery: time.Hour}
	_, done := run(t, p)

	select {
	case err := <-done:
		require.ErrorIs(t, err, application.ErrAuth)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on auth error")
	}
	n, _ := f.counts()
	require.Equal(t, 2, n)
}

func TestPoller_KeepsGoingOnOtherErrors(t *testing.T) {
	f := &fakeRefresher{refreshFn: func(int) error { return application.ErrAllSymbolsFailed }}
	p := &Poller{Service: f, ScanEvery: 10 * time.Millisecond, PollEvery: time.Hour}
	_, done := run(t, p)

	require.Eventually(t, func() bool {
		n, _ := f.counts()
		return n >= 3
	}, 2*time.Second, 5*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("poller stopped unexpectedly: %v", err)
	default:
	}
}

func TestPoller_DrainsRefreshJobs(t *testing.T) {
	f := &fakeRefresher{queued: []domain.RefreshJob{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	p := &Poller{Service: f, ScanEvery: time.Hour, PollEvery: 10 * time.Millisecond, BatchLimit: 2}
	_, _ = run(t, p)

	require.Eventually(t, func() bool {
		_, processed := f.counts()
		return len(processed) == 3
	}, 2*time.Second, 5*time.Millisecond)
	_, processed := f.counts()
	require.Equal(t, []string{"a", "b", "c"}, processed)
}

func TestPoller_JobFailureDoesNotStop(t *testing.T) {
	f := &fakeRefresher{
		queued:    []domain.RefreshJob{{ID: "a"}, {ID: "b"}},
		processFn: func(id string) error { return errors.New("boom " + id) },
	}
	p := &Poller{Service: f, ScanEvery: time.Hour, PollEvery: 10 * time.Millisecond}
	_, done := run(t, p)

	require.Eventually(t, func() bool {
		_, processed := f.counts()
		return len(processed) == 2
	}, 2*time.Second, 5*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("poller stopped unexpectedly: %v", err)
	default:
	}
}

func TestPoller_JobAuthErrorStops(t *testing.T) {
	f := &fakeRefresher{
		queued:    []domain.RefreshJob{{ID: "a"}},
		processFn: func(string) error { return fmt.Errorf("refresh: %w", application.ErrAuth) },
	}
	p := &Poller{Service: f, ScanEvery: time.Hour, PollEvery: 10 * time.Millisecond}
	_, done := run(t, p)

	select {
	case err := <-done:
		require.ErrorIs(t, err, application.ErrAuth)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on auth error")
	}
}
