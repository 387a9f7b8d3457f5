package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"

	"github.com/jackc/pgx/v5"
)

// SnapshotStore persists the latest quote set (one row per symbol) and the
// outcome of the last cycle. No history is kept.
type SnapshotStore struct {
	db  *DB
	uow *UnitOfWork
}

var _ application.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db, uow: &UnitOfWork{Pool: db.Pool}}
}

func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	var (
		out       domain.Snapshot
		updatedAt *time.Time
		attempt   *time.Time
	)
	const status = `
        SELECT updated_at, last_attempt_at, last_update_success, last_error, reauth_required
        FROM snapshot_status WHERE id = 1`
	err := s.db.conn(ctx).QueryRow(ctx, status).
		Scan(&updatedAt, &attempt, &out.LastUpdateSuccess, &out.LastError, &out.ReauthRequired)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, fmt.Errorf("load snapshot status: %w", err)
	}
	if updatedAt != nil {
		out.UpdatedAt = updatedAt.UTC()
	}
	if attempt != nil {
		out.LastAttemptAt = attempt.UTC()
	}

	rows, err := s.db.conn(ctx).Query(ctx, `SELECT symbol, fields FROM quotes`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load quotes: %w", err)
	}
	defer rows.Close()
	out.Symbols = domain.QuoteSet{}
	for rows.Next() {
		var (
			sym    string
			fields map[string]string
		)
		if err := rows.Scan(&sym, &fields); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan quote: %w", err)
		}
		out.Symbols[domain.Symbol(sym)] = domain.Quote(fields)
	}
	return out, rows.Err()
}

// Save replaces the stored quote set wholesale in one transaction.
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		q := s.db.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM quotes`); err != nil {
			return fmt.Errorf("clear quotes: %w", err)
		}
		const ins = `INSERT INTO quotes(symbol, fields, updated_at) VALUES ($1, $2, $3)`
		for sym, fields := range snap.Symbols {
			if _, err := q.Exec(ctx, ins, string(sym), map[string]string(fields), snap.UpdatedAt); err != nil {
				return fmt.Errorf("insert quote %s: %w", sym, err)
			}
		}
		const up = `
            INSERT INTO snapshot_status(id, updated_at, last_attempt_at, last_update_success, last_error, reauth_required)
            VALUES (1, $1, $2, $3, $4, $5)
            ON CONFLICT (id) DO UPDATE
              SET updated_at=EXCLUDED.updated_at,
                  last_attempt_at=EXCLUDED.last_attempt_at,
                  last_update_success=EXCLUDED.last_update_success,
                  last_error=EXCLUDED.last_error,
                  reauth_required=EXCLUDED.reauth_required`
		_, err := q.Exec(ctx, up, snap.UpdatedAt, snap.LastAttemptAt, snap.LastUpdateSuccess, snap.LastError, snap.ReauthRequired)
		return err
	})
}

func (s *SnapshotStore) MarkFailed(ctx context.Context, at time.Time, msg string, reauth bool) error {
	const up = `
        INSERT INTO snapshot_status(id, last_attempt_at, last_update_success, last_error, reauth_required)
        VALUES (1, $1, FALSE, $2, $3)
        ON CONFLICT (id) DO UPDATE
          SET last_attempt_at=EXCLUDED.last_attempt_at,
              last_update_success=FALSE,
              last_error=EXCLUDED.last_error,
              reauth_required=EXCLUDED.reauth_required`
	_, err := s.db.conn(ctx).Exec(ctx, up, at, msg, reauth)
	return err
}
