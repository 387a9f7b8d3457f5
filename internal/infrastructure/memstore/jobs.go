package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"

	"github.com/google/uuid"
)

// RefreshJobRepo is a process-local job queue for manual refreshes.
type RefreshJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.RefreshJob
	now  func() time.Time
}

var _ application.RefreshJobRepo = (*RefreshJobRepo)(nil)

func NewRefreshJobRepo() *RefreshJobRepo {
	return &RefreshJobRepo{
		jobs: make(map[string]*domain.RefreshJob),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *RefreshJobRepo) CreateQueued(_ context.Context) (string, error) {
	id := uuid.NewString()
	now := r.now()
	r.mu.Lock()
	r.jobs[id] = &domain.RefreshJob{ID: id, Status: domain.RefreshStatusQueued, RequestedAt: now, UpdatedAt: now}
	r.mu.Unlock()
	return id, nil
}

func (r *RefreshJobRepo) GetByID(_ context.Context, id string) (domain.RefreshJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	return copyJob(j), nil
}

func (r *RefreshJobRepo) UpdateStatus(_ context.Context, id string, status domain.RefreshStatus, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return application.ErrNotFound
	}
	j.Status = status
	j.Error = nil
	if errMsg != nil {
		msg := *errMsg
		j.Error = &msg
	}
	j.UpdatedAt = r.now()
	return nil
}

// ClaimQueued moves up to limit of the oldest queued jobs to processing.
func (r *RefreshJobRepo) ClaimQueued(_ context.Context, limit int) ([]domain.RefreshJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var queued []*domain.RefreshJob
	for _, j := range r.jobs {
		if j.Status == domain.RefreshStatusQueued {
			queued = append(queued, j)
		}
	}
	sort.Slice(queued, func(a, b int) bool { return queued[a].RequestedAt.Before(queued[b].RequestedAt) })
	if limit > 0 && len(queued) > limit {
		queued = queued[:limit]
	}
	out := make([]domain.RefreshJob, 0, len(queued))
	now := r.now()
	for _, j := range queued {
		j.Status = domain.RefreshStatusProcessing
		j.UpdatedAt = now
		out = append(out, copyJob(j))
	}
	return out, nil
}

func copyJob(j *domain.RefreshJob) domain.RefreshJob {
	out := *j
	if j.Error != nil {
		msg := *j.Error
		out.Error = &msg
	}
	return out
}
