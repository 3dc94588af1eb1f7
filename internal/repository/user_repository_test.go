package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func subjectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "role", "batch_id", "last_active"})
}

func TestUserRepositoryListStudentsUnscoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db, 10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, role, batch_id, last_active FROM users WHERE role = $1")).
		WithArgs(models.RoleStudent).
		WillReturnRows(subjectRows().
			AddRow("s1", "Asha Rao", "asha@example.com", "student", "b1", "2024-05-01T10:00:00Z").
			AddRow("s2", "Ravi Iyer", "ravi@example.com", "student", "b1", nil))

	students, err := repo.ListStudents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "s1", students[0].ID)
	assert.Nil(t, students[1].LastActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListStudentsChunksLargeScopes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db, 10)

	batchIDs := make([]string, 25)
	for i := range batchIDs {
		batchIDs[i] = fmt.Sprintf("b%02d", i)
	}

	// 25 IDs at chunk size 10 means exactly three queries.
	queryPrefix := regexp.QuoteMeta("SELECT id, full_name, email, role, batch_id, last_active FROM users WHERE role = ? AND batch_id IN")
	for chunk := 0; chunk < 3; chunk++ {
		mock.ExpectQuery(queryPrefix).
			WillReturnRows(subjectRows().
				AddRow(fmt.Sprintf("s%d", chunk), "Student", "s@example.com", "student", batchIDs[chunk*10], nil))
	}

	students, err := repo.ListStudents(context.Background(), batchIDs)
	require.NoError(t, err)
	assert.Len(t, students, 3)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListInactiveStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db, 10)
	cutoff := time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC).Format(time.RFC3339)
	mock.ExpectQuery(regexp.QuoteMeta("last_active IS NULL OR last_active <= $2")).
		WithArgs(models.RoleStudent, cutoff).
		WillReturnRows(subjectRows().
			AddRow("s1", "Asha Rao", "asha@example.com", "student", "b1", nil))

	students, err := repo.ListInactiveStudents(context.Background(), nil, cutoff)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListStaffByRoles(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db, 10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, role FROM users WHERE role IN")).
		WithArgs("csa", "hod").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow("u1", "CSA One", "csa@example.com", "csa").
			AddRow("u2", "HOD One", "hod@example.com", "hod"))

	staff, err := repo.ListStaffByRoles(context.Background(), models.NotifiableStaffRoles)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, models.RoleCSA, staff[0].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListStaffByRolesEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db, 10)
	staff, err := repo.ListStaffByRoles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, staff)
}

func TestChunkIDs(t *testing.T) {
	assert.Nil(t, chunkIDs(nil, 10))

	ids := []string{"a", "b", "c", "d", "e"}
	chunks := chunkIDs(ids, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"e"}, chunks[2])

	// Non-positive size falls back to the legacy cap.
	assert.Len(t, chunkIDs(ids, 0), 1)
}
