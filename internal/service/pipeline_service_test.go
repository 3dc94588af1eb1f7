package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepai-labs/compliance-monitor/internal/models"
	"github.com/prepai-labs/compliance-monitor/pkg/config"
)

type fakeRiskComputer struct {
	result models.RiskResult
	err    error
	calls  int
}

func (f *fakeRiskComputer) ComputeRisk(context.Context, []string, time.Duration, time.Time) (models.RiskResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeReportBuilder struct {
	err error
}

func (f *fakeReportBuilder) BuildInactiveReport([]models.InactiveSubject, time.Duration) ([]byte, error) {
	return []byte("%PDF-inactive"), f.err
}

func (f *fakeReportBuilder) BuildMissedReport([]models.MissedWorkItem) ([]byte, error) {
	return []byte("%PDF-missed"), f.err
}

type fakeDispatcher struct {
	err   error
	calls int
}

func (f *fakeDispatcher) Dispatch(context.Context, []byte, []byte, int, int) (*DispatchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &DispatchResult{Recipients: 2}, nil
}

type fakeStatusStore struct {
	status    *models.RunStatus
	getErr    error
	upserts   []models.RunStatus
	upsertErr error
}

func (f *fakeStatusStore) Get(context.Context) (*models.RunStatus, error) {
	return f.status, f.getErr
}

func (f *fakeStatusStore) Upsert(_ context.Context, status models.RunStatus) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, status)
	return nil
}

func newTestPipeline(risk *fakeRiskComputer, dispatcher *fakeDispatcher, status *fakeStatusStore) *PipelineService {
	svc := NewPipelineService(PipelineServiceParams{
		Risk:       risk,
		Reports:    &fakeReportBuilder{},
		Dispatcher: dispatcher,
		Status:     status,
		Config: config.EngineConfig{
			InactivityThreshold: 7 * 24 * time.Hour,
			MinNotifyInterval:   24 * time.Hour,
		},
	})
	svc.now = func() time.Time {
		return time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	}
	return svc
}

func riskWithFindings() models.RiskResult {
	return models.RiskResult{
		Inactive: []models.InactiveSubject{{ID: "s1", FullName: "Asha"}},
		Missed: []models.MissedWorkItem{{
			WorkItemID: "w1",
			Title:      "Essay",
			Deadline:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Defaulters: []models.Defaulter{{ID: "s2", FullName: "Ravi"}},
		}},
	}
}

func TestRunOnceSkipsWithinInterval(t *testing.T) {
	risk := &fakeRiskComputer{}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{status: &models.RunStatus{
		LastRunAt: time.Date(2024, 5, 10, 2, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}}
	svc := newTestPipeline(risk, dispatcher, status)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, risk.calls)
	assert.Zero(t, dispatcher.calls)
	assert.Empty(t, status.upserts)
}

func TestRunOnceUnreadableMarkerFailsOpen(t *testing.T) {
	risk := &fakeRiskComputer{result: riskWithFindings()}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{getErr: errors.New("store down")}
	svc := newTestPipeline(risk, dispatcher, status)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, risk.calls)
	assert.Equal(t, 1, dispatcher.calls)
}

func TestRunOnceCleanRunStampsWithoutDispatch(t *testing.T) {
	risk := &fakeRiskComputer{}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}
	svc := newTestPipeline(risk, dispatcher, status)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, dispatcher.calls)
	require.Len(t, status.upserts, 1)
	assert.Equal(t, "No compliance issues found", status.upserts[0].LatestMessage)
	assert.Equal(t, "2024-05-10T08:00:00Z", status.upserts[0].LastRunAt)
}

func TestRunOnceDispatchFailureLeavesMarkerUntouched(t *testing.T) {
	risk := &fakeRiskComputer{result: riskWithFindings()}
	dispatcher := &fakeDispatcher{err: errors.New("smtp unreachable")}
	status := &fakeStatusStore{}
	svc := newTestPipeline(risk, dispatcher, status)

	require.Error(t, svc.RunOnce(context.Background()))
	assert.Empty(t, status.upserts)
}

func TestRunOnceSuccessStampsMarker(t *testing.T) {
	risk := &fakeRiskComputer{result: riskWithFindings()}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}
	svc := newTestPipeline(risk, dispatcher, status)

	require.NoError(t, svc.RunOnce(context.Background()))
	require.Len(t, status.upserts, 1)
	assert.Equal(t, "2024-05-10T08:00:00Z", status.upserts[0].LastRunAt)
	assert.Equal(t, "1 inactive students, 1 assignments with missing submissions", status.upserts[0].LatestMessage)
}

func TestRunOnceComputeFailureSurfaces(t *testing.T) {
	risk := &fakeRiskComputer{err: errors.New("store down")}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}
	svc := newTestPipeline(risk, dispatcher, status)

	require.Error(t, svc.RunOnce(context.Background()))
	assert.Zero(t, dispatcher.calls)
	assert.Empty(t, status.upserts)
}

func TestRunOnceStampFailureDoesNotFailTheRun(t *testing.T) {
	risk := &fakeRiskComputer{result: riskWithFindings()}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{upsertErr: errors.New("write denied")}
	svc := newTestPipeline(risk, dispatcher, status)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, dispatcher.calls)
}
