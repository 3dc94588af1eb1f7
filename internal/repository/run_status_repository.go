package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

// RunStatusRepository persists the singleton pipeline completion marker.
// The interface is deliberately narrow (read, upsert-whole-record) so an
// atomic compare-and-swap implementation can replace it without touching
// the pipeline contract.
type RunStatusRepository struct {
	db *sqlx.DB
}

// NewRunStatusRepository constructs a RunStatusRepository.
func NewRunStatusRepository(db *sqlx.DB) *RunStatusRepository {
	return &RunStatusRepository{db: db}
}

// Get returns the run status marker, or nil when no run ever completed.
func (r *RunStatusRepository) Get(ctx context.Context) (*models.RunStatus, error) {
	const query = "SELECT id, last_run_at, latest_message, updated_at FROM run_status WHERE id = $1"
	var status models.RunStatus
	if err := r.db.GetContext(ctx, &status, query, models.RunStatusID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get run status: %w", err)
	}
	return &status, nil
}

// Upsert creates or replaces the singleton marker.
func (r *RunStatusRepository) Upsert(ctx context.Context, status models.RunStatus) error {
	const query = `INSERT INTO run_status (id, last_run_at, latest_message, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET last_run_at = EXCLUDED.last_run_at,
            latest_message = EXCLUDED.latest_message, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, models.RunStatusID, status.LastRunAt, status.LatestMessage, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert run status: %w", err)
	}
	return nil
}
