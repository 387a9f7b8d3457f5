package memstore

import (
	"context"
	"sync"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"
)

// SnapshotStore keeps the latest snapshot in process memory.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap domain.Snapshot
}

var _ application.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore() *SnapshotStore { return &SnapshotStore{} }

func (s *SnapshotStore) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Symbols = cloneSet(s.snap.Symbols)
	return out, nil
}

func (s *SnapshotStore) Save(_ context.Context, snap domain.Snapshot) error {
	snap.Symbols = cloneSet(snap.Symbols)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

// MarkFailed records a failed attempt and leaves the quote set untouched.
func (s *SnapshotStore) MarkFailed(_ context.Context, at time.Time, msg string, reauth bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastAttemptAt = at
	s.snap.LastUpdateSuccess = false
	s.snap.LastError = msg
	s.snap.ReauthRequired = reauth
	return nil
}

func cloneSet(in domain.QuoteSet) domain.QuoteSet {
	if in == nil {
		return nil
	}
	out := make(domain.QuoteSet, len(in))
	for sym, q := range in {
		cp := make(domain.Quote, len(q))
		for k, v := range q {
			cp[k] = v
		}
		out[sym] = cp
	}
	return out
}
