package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

func TestRunStatusRepositoryGetNoRunYet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRunStatusRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM run_status WHERE id = $1")).
		WithArgs(models.RunStatusID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_run_at", "latest_message", "updated_at"}))

	status, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatusRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRunStatusRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM run_status WHERE id = $1")).
		WithArgs(models.RunStatusID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_run_at", "latest_message", "updated_at"}).
			AddRow(1, "2024-05-09T08:00:00Z", "2 inactive students, 1 assignments with missing submissions", time.Now()))

	status, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "2024-05-09T08:00:00Z", status.LastRunAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatusRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRunStatusRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_status")).
		WithArgs(models.RunStatusID, "2024-05-10T08:00:00Z", "No compliance issues found", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), models.RunStatus{
		LastRunAt:     "2024-05-10T08:00:00Z",
		LatestMessage: "No compliance issues found",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
