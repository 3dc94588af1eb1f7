package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/prepai-labs/compliance-monitor/pkg/config"
)

type pipelineRunner interface {
	RunOnce(ctx context.Context) error
}

const tickTimeout = 5 * time.Minute

// Scheduler fires the notification pipeline on a fixed cadence. Ticks are
// cheap: the leader check and the run-status guard decide whether any real
// work happens, so the cadence can stay short without over-alerting.
type Scheduler struct {
	cron     *cron.Cron
	pipeline pipelineRunner
	elector  LeaderElector
	logger   *zap.Logger
	cfg      config.SchedulerConfig
}

// New constructs a Scheduler. Jobs are registered on Start.
func New(pipeline pipelineRunner, elector LeaderElector, logger *zap.Logger, cfg config.SchedulerConfig) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	return &Scheduler{
		cron:     cron.New(),
		pipeline: pipeline,
		elector:  elector,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start registers the tick job and begins the cron loop. It returns
// immediately; the loop runs on cron's own goroutine.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.cfg.TickInterval)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register tick job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Duration("tick_interval", s.cfg.TickInterval))
	return nil
}

// Stop halts the cron loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// tick runs one pipeline cycle. Errors are logged and dropped: a failed
// cycle must never take the timer loop down.
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if !s.elector.IsLeader(ctx) {
		s.logger.Debug("skipping tick, not the scheduler leader")
		return
	}

	if err := s.pipeline.RunOnce(ctx); err != nil {
		s.logger.Error("notification cycle failed", zap.Error(err))
	}
}
