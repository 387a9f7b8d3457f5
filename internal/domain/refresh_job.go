package domain

import "time"

type RefreshStatus string

const (
	RefreshStatusQueued     RefreshStatus = "queued"
	RefreshStatusProcessing RefreshStatus = "processing"
	RefreshStatusDone       RefreshStatus = "done"
	RefreshStatusFailed     RefreshStatus = "failed"
)

type RefreshJob struct {
	ID          string
	Status      RefreshStatus
	Error       *string
	RequestedAt time.Time
	UpdatedAt   time.Time
}
