package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prepai-labs/compliance-monitor/internal/models"
	"github.com/prepai-labs/compliance-monitor/pkg/config"
)

type riskComputer interface {
	ComputeRisk(ctx context.Context, scope []string, threshold time.Duration, now time.Time) (models.RiskResult, error)
}

type reportBuilder interface {
	BuildInactiveReport(inactive []models.InactiveSubject, threshold time.Duration) ([]byte, error)
	BuildMissedReport(missed []models.MissedWorkItem) ([]byte, error)
}

type alertDispatcher interface {
	Dispatch(ctx context.Context, inactiveReport, missedReport []byte, inactiveCount, missedCount int) (*DispatchResult, error)
}

// RunStatusStore is the narrow contract over the singleton run marker. A
// compare-and-swap implementation can replace the plain upsert without
// changing the pipeline.
type RunStatusStore interface {
	Get(ctx context.Context) (*models.RunStatus, error)
	Upsert(ctx context.Context, status models.RunStatus) error
}

// PipelineService runs one full notification cycle:
// guard -> aggregate -> build reports -> dispatch -> stamp run status.
// Every failure degrades to a logged outcome; nothing here may take the
// scheduler loop down.
type PipelineService struct {
	risk       riskComputer
	reports    reportBuilder
	dispatcher alertDispatcher
	status     RunStatusStore
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        config.EngineConfig
	now        func() time.Time
}

// PipelineServiceParams groups constructor dependencies.
type PipelineServiceParams struct {
	Risk       riskComputer
	Reports    reportBuilder
	Dispatcher alertDispatcher
	Status     RunStatusStore
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     config.EngineConfig
}

// NewPipelineService constructs a PipelineService with sane defaults.
func NewPipelineService(params PipelineServiceParams) *PipelineService {
	cfg := params.Config
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = 7 * 24 * time.Hour
	}
	if cfg.MinNotifyInterval <= 0 {
		cfg.MinNotifyInterval = 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineService{
		risk:       params.Risk,
		reports:    params.Reports,
		dispatcher: params.Dispatcher,
		status:     params.Status,
		metrics:    params.Metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RunOnce executes one notification cycle. The returned error is
// informational for the trigger's log line; the run marker semantics are
// handled here.
func (s *PipelineService) RunOnce(ctx context.Context) error {
	now := s.now().UTC()

	status, err := s.status.Get(ctx)
	if err != nil {
		// Fail open: an unreadable marker must not suppress alerts.
		s.logger.Warn("run status unavailable, treating as never run", zap.Error(err))
		status = nil
	}

	if !ShouldRun(status, now, s.cfg.MinNotifyInterval) {
		s.logger.Debug("notification cycle skipped by guard",
			zap.String("last_run_at", status.LastRunAt),
			zap.Duration("min_interval", s.cfg.MinNotifyInterval),
		)
		s.metrics.RecordPipelineRun(RunOutcomeSkipped)
		return nil
	}

	result, err := s.risk.ComputeRisk(ctx, nil, s.cfg.InactivityThreshold, now)
	if err != nil {
		s.metrics.RecordPipelineRun(RunOutcomeFailed)
		return fmt.Errorf("compute risk: %w", err)
	}

	if result.Empty() {
		// A clean run is still a completed run.
		s.logger.Info("no compliance issues found, nothing to dispatch")
		s.stampStatus(ctx, now, "No compliance issues found")
		s.metrics.RecordPipelineRun(RunOutcomeCompleted)
		return nil
	}

	inactiveReport, err := s.reports.BuildInactiveReport(result.Inactive, s.cfg.InactivityThreshold)
	if err != nil {
		s.metrics.RecordPipelineRun(RunOutcomeFailed)
		return fmt.Errorf("build inactive report: %w", err)
	}
	missedReport, err := s.reports.BuildMissedReport(result.Missed)
	if err != nil {
		s.metrics.RecordPipelineRun(RunOutcomeFailed)
		return fmt.Errorf("build missed report: %w", err)
	}

	dispatched, err := s.dispatcher.Dispatch(ctx, inactiveReport, missedReport, len(result.Inactive), len(result.Missed))
	if err != nil {
		// Leave the run marker untouched so the next eligible cycle retries.
		s.logger.Error("alert delivery failed, will retry next eligible cycle", zap.Error(err))
		s.metrics.RecordPipelineRun(RunOutcomeFailed)
		return err
	}

	message := fmt.Sprintf("%d inactive students, %d assignments with missing submissions",
		len(result.Inactive), len(result.Missed))
	s.stampStatus(ctx, now, message)
	s.metrics.RecordPipelineRun(RunOutcomeCompleted)
	s.logger.Info("notification cycle completed",
		zap.Int("inactive", len(result.Inactive)),
		zap.Int("missed_tasks", len(result.Missed)),
		zap.Int("recipients", dispatched.Recipients),
	)
	return nil
}

func (s *PipelineService) stampStatus(ctx context.Context, now time.Time, message string) {
	err := s.status.Upsert(ctx, models.RunStatus{
		LastRunAt:     now.Format(time.RFC3339),
		LatestMessage: message,
	})
	if err != nil {
		// The alert went out; a failed stamp means the guard may allow an
		// early re-send, which is the preferred failure direction.
		s.logger.Error("failed to stamp run status", zap.Error(err))
	}
}
