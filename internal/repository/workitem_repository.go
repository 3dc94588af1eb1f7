package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

// WorkItemRepository reads assignments and their submission records.
type WorkItemRepository struct {
	db        *sqlx.DB
	chunkSize int
}

// NewWorkItemRepository constructs a WorkItemRepository.
func NewWorkItemRepository(db *sqlx.DB, chunkSize int) *WorkItemRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &WorkItemRepository{db: db, chunkSize: chunkSize}
}

const workItemColumns = "id, title, deadline, assigned_batch_id, created_at"

// ListDeadlineCandidates returns assignments whose text deadline is at or
// before the given YYYY-MM-DD date, optionally restricted to batch IDs.
// The precise deadline-versus-clock comparison happens in the aggregator,
// which also drops rows with malformed deadlines.
func (r *WorkItemRepository) ListDeadlineCandidates(ctx context.Context, batchIDs []string, latestDeadline string) ([]models.WorkItem, error) {
	if len(batchIDs) == 0 {
		query := fmt.Sprintf(
			"SELECT %s FROM assignments WHERE deadline <> '' AND deadline <= $1 ORDER BY deadline ASC, created_at ASC",
			workItemColumns,
		)
		var items []models.WorkItem
		if err := r.db.SelectContext(ctx, &items, query, latestDeadline); err != nil {
			return nil, fmt.Errorf("list deadline candidates: %w", err)
		}
		return items, nil
	}

	var items []models.WorkItem
	for _, chunk := range chunkIDs(batchIDs, r.chunkSize) {
		query, args, err := sqlx.In(
			fmt.Sprintf(
				"SELECT %s FROM assignments WHERE assigned_batch_id IN (?) AND deadline <> '' AND deadline <= ? ORDER BY deadline ASC, created_at ASC",
				workItemColumns,
			),
			chunk, latestDeadline,
		)
		if err != nil {
			return nil, fmt.Errorf("build deadline scope query: %w", err)
		}
		var part []models.WorkItem
		if err := r.db.SelectContext(ctx, &part, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("list deadline candidates by batch: %w", err)
		}
		items = append(items, part...)
	}
	return items, nil
}

// ListSubmittedSubjectIDs returns the set of subject IDs that submitted
// against the given work item.
func (r *WorkItemRepository) ListSubmittedSubjectIDs(ctx context.Context, workItemID string) (map[string]struct{}, error) {
	const query = "SELECT subject_id FROM submissions WHERE assignment_id = $1"
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, workItemID); err != nil {
		return nil, fmt.Errorf("list submissions for %s: %w", workItemID, err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
