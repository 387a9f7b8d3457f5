package worker

import (
	"context"
	"errors"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"
	infraconfig "avquotes-service/internal/infrastructure/config"

	"go.uber.org/zap"
)

// Refresher is the part of QuoteService the poller drives.
type Refresher interface {
	Refresh(ctx context.Context) error
	ClaimRefreshJobs(ctx context.Context, limit int) ([]domain.RefreshJob, error)
	ProcessRefresh(ctx context.Context, id string) error
}

var _ Refresher = (*application.QuoteService)(nil)
var _ application.Worker = (*Poller)(nil)

// Poller refreshes quotes once on start and then every ScanEvery, and
// drains queued manual refresh jobs every PollEvery. It stops with
// application.ErrAuth when the provider rejects the key.
type Poller struct {
	Service Refresher

	ScanEvery  time.Duration
	PollEvery  time.Duration
	BatchLimit int
	Log        *zap.Logger
}

func (p *Poller) Start(ctx context.Context) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	if p.ScanEvery <= 0 {
		p.ScanEvery = time.Hour
	}
	if p.PollEvery <= 0 {
		p.PollEvery = infraconfig.DefaultWorkerPoll
	}
	if p.BatchLimit <= 0 {
		p.BatchLimit = infraconfig.DefaultWorkerBatch
	}

	log.Info("poller_started",
		zap.Duration("scan_every", p.ScanEvery),
		zap.Duration("poll_every", p.PollEvery),
	)
	if err := p.refresh(ctx, log); err != nil {
		return err
	}

	scan := time.NewTicker(p.ScanEvery)
	defer scan.Stop()
	poll := time.NewTicker(p.PollEvery)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("poller_stopped")
			return nil
		case <-scan.C:
			if err := p.refresh(ctx, log); err != nil {
				return err
			}
		case <-poll.C:
			if err := p.drainJobs(ctx, log); err != nil {
				return err
			}
		}
	}
}

func (p *Poller) refresh(ctx context.Context, log *zap.Logger) error {
	err := p.Service.Refresh(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, application.ErrAuth):
		log.Error("poller_reauth_required", zap.Error(err))
		return err
	case ctx.Err() != nil:
		return nil
	default:
		// QuoteService already logged it with throttling.
		log.Debug("poller_refresh_failed", zap.Error(err))
		return nil
	}
}

func (p *Poller) drainJobs(ctx context.Context, log *zap.Logger) error {
	jobs, err := p.Service.ClaimRefreshJobs(ctx, p.BatchLimit)
	if err != nil {
		log.Warn("claim_failed", zap.Error(err))
		return nil
	}
	for _, j := range jobs {
		err := p.Service.ProcessRefresh(ctx, j.ID)
		switch {
		case err == nil:
			log.Info("refresh_job_done", zap.String("id", j.ID))
		case errors.Is(err, application.ErrAuth):
			log.Error("poller_reauth_required", zap.String("id", j.ID), zap.Error(err))
			return err
		default:
			log.Warn("refresh_job_failed", zap.String("id", j.ID), zap.Error(err))
		}
	}
	return nil
}
