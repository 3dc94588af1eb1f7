package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prepai-labs/compliance-monitor/internal/models"
	appErrors "github.com/prepai-labs/compliance-monitor/pkg/errors"
)

// BatchRepository reads batch records and staff-to-batch assignments.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// GetByID fetches a single batch.
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*models.Batch, error) {
	const query = "SELECT id, name, department, created_at FROM batches WHERE id = $1"
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &batch, nil
}

// ListManagedBatchIDs returns the batch IDs assigned to a staff member,
// used to scope dashboard aggregations.
func (r *BatchRepository) ListManagedBatchIDs(ctx context.Context, staffID string) ([]string, error) {
	const query = "SELECT batch_id FROM batch_staff WHERE staff_id = $1 ORDER BY batch_id ASC"
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, staffID); err != nil {
		return nil, fmt.Errorf("list managed batches: %w", err)
	}
	return ids, nil
}
