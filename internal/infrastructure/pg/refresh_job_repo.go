package pg

import (
	"context"
	"errors"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"
	"avquotes-service/internal/infrastructure/logx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RefreshJobRepo struct{ db *DB }

var _ application.RefreshJobRepo = (*RefreshJobRepo)(nil)

func NewRefreshJobRepo(db *DB) *RefreshJobRepo { return &RefreshJobRepo{db: db} }

func jobLog() *zap.Logger { return logx.Component("pg.refresh_job") }

func (r *RefreshJobRepo) CreateQueued(ctx context.Context) (string, error) {
	id := uuid.NewString()
	const ins = `INSERT INTO refresh_jobs(id, status) VALUES ($1, 'queued')`
	log := jobLog().With(
		zap.String("operation", "CreateQueued"),
		zap.String("id", id),
	)
	tag, err := r.db.conn(ctx).Exec(ctx, ins, id)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return "", err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return id, nil
}

func (r *RefreshJobRepo) GetByID(ctx context.Context, id string) (domain.RefreshJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	const q = `
        SELECT id::text, status, error, requested_at, updated_at
        FROM refresh_jobs WHERE id=$1`
	var (
		out    domain.RefreshJob
		status string
	)
	err := r.db.conn(ctx).QueryRow(ctx, q, id).Scan(&out.ID, &status, &out.Error, &out.RequestedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	if err != nil {
		jobLog().Error("sql.query_failed",
			zap.String("operation", "GetByID"),
			zap.String("id", id),
			zap.Error(err),
		)
		return domain.RefreshJob{}, err
	}
	out.Status = parseStatus(status)
	out.RequestedAt = out.RequestedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	return out, nil
}

func (r *RefreshJobRepo) UpdateStatus(ctx context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	const up = `
        UPDATE refresh_jobs
        SET status=$2, error=$3, updated_at=NOW()
        WHERE id=$1`
	log := jobLog().With(
		zap.String("operation", "UpdateStatus"),
		zap.String("id", id),
		zap.String("status", string(st)),
	)
	if errMsg != nil {
		log = log.With(zap.String("error", *errMsg))
	}
	tag, err := r.db.conn(ctx).Exec(ctx, up, id, string(parseStatus(string(st))), errMsg)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	log.Info("sql.exec_success")
	return nil
}

// ClaimQueued marks up to limit of the oldest queued jobs as processing.
// SKIP LOCKED lets several workers poll the same table.
func (r *RefreshJobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.RefreshJob, error) {
	const q = `
      WITH cte AS (
        SELECT id
        FROM refresh_jobs
        WHERE status = 'queued'
        ORDER BY requested_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED
      )
      UPDATE refresh_jobs j
      SET status = 'processing', updated_at = NOW()
      FROM cte
      WHERE j.id = cte.id
      RETURNING j.id::text, j.requested_at, j.updated_at;
    `
	rows, err := r.db.conn(ctx).Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.RefreshJob
	for rows.Next() {
		j := domain.RefreshJob{Status: domain.RefreshStatusProcessing}
		if err := rows.Scan(&j.ID, &j.RequestedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		j.RequestedAt, j.UpdatedAt = j.RequestedAt.UTC(), j.UpdatedAt.UTC()
		out = append(out, j)
	}
	return out, rows.Err()
}

func parseStatus(s string) domain.RefreshStatus {
	switch domain.RefreshStatus(s) {
	case domain.RefreshStatusQueued, domain.RefreshStatusProcessing, domain.RefreshStatusDone:
		return domain.RefreshStatus(s)
	default:
		return domain.RefreshStatusFailed
	}
}
