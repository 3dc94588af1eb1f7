package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

// UserRepository reads subjects and staff from the users table. Multi-batch
// filters are issued in chunks of at most chunkSize IDs and merged, which is
// invisible to callers beyond query count.
type UserRepository struct {
	db        *sqlx.DB
	chunkSize int
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB, chunkSize int) *UserRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &UserRepository{db: db, chunkSize: chunkSize}
}

const subjectColumns = "id, full_name, email, role, batch_id, last_active"

// ListStudents returns student subjects, restricted to the given batch IDs
// when scope is non-empty.
func (r *UserRepository) ListStudents(ctx context.Context, batchIDs []string) ([]models.Subject, error) {
	if len(batchIDs) == 0 {
		query := fmt.Sprintf("SELECT %s FROM users WHERE role = $1 ORDER BY full_name ASC", subjectColumns)
		var students []models.Subject
		if err := r.db.SelectContext(ctx, &students, query, models.RoleStudent); err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
		return students, nil
	}

	var students []models.Subject
	for _, chunk := range chunkIDs(batchIDs, r.chunkSize) {
		query, args, err := sqlx.In(
			fmt.Sprintf("SELECT %s FROM users WHERE role = ? AND batch_id IN (?) ORDER BY full_name ASC", subjectColumns),
			models.RoleStudent, chunk,
		)
		if err != nil {
			return nil, fmt.Errorf("build student scope query: %w", err)
		}
		var part []models.Subject
		if err := r.db.SelectContext(ctx, &part, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("list students by batch: %w", err)
		}
		students = append(students, part...)
	}
	return students, nil
}

// ListInactiveStudents is the store-side form of the inactivity filter:
// students whose last_active is absent or at/before the cutoff. Callers fall
// back to ListStudents plus the in-memory predicate when this query form is
// unavailable; both paths must agree. The cutoff is RFC3339 UTC text, whose
// lexicographic order matches chronological order.
func (r *UserRepository) ListInactiveStudents(ctx context.Context, batchIDs []string, cutoff string) ([]models.Subject, error) {
	if len(batchIDs) == 0 {
		query := fmt.Sprintf(
			"SELECT %s FROM users WHERE role = $1 AND (last_active IS NULL OR last_active <= $2) ORDER BY full_name ASC",
			subjectColumns,
		)
		var students []models.Subject
		if err := r.db.SelectContext(ctx, &students, query, models.RoleStudent, cutoff); err != nil {
			return nil, fmt.Errorf("list inactive students: %w", err)
		}
		return students, nil
	}

	var students []models.Subject
	for _, chunk := range chunkIDs(batchIDs, r.chunkSize) {
		query, args, err := sqlx.In(
			fmt.Sprintf(
				"SELECT %s FROM users WHERE role = ? AND batch_id IN (?) AND (last_active IS NULL OR last_active <= ?) ORDER BY full_name ASC",
				subjectColumns,
			),
			models.RoleStudent, chunk, cutoff,
		)
		if err != nil {
			return nil, fmt.Errorf("build inactive scope query: %w", err)
		}
		var part []models.Subject
		if err := r.db.SelectContext(ctx, &part, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("list inactive students by batch: %w", err)
		}
		students = append(students, part...)
	}
	return students, nil
}

// ListStaffByRoles returns staff users holding any of the given roles.
func (r *UserRepository) ListStaffByRoles(ctx context.Context, roles []models.UserRole) ([]models.Staff, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		"SELECT id, full_name, email, role FROM users WHERE role IN (?) ORDER BY full_name ASC",
		roles,
	)
	if err != nil {
		return nil, fmt.Errorf("build staff query: %w", err)
	}
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}
