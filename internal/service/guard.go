package service

import (
	"time"

	"github.com/prepai-labs/compliance-monitor/internal/models"
)

// ShouldRun decides whether a notification cycle may execute. It exists to
// decouple the trigger cadence (minutes) from the alert cadence (daily): the
// scheduler fires often, real work happens once per minInterval.
//
// A missing status or an unparseable last_run_at counts as "never run" —
// the guard fails open, preferring a duplicate alert over a silently
// skipped one.
func ShouldRun(status *models.RunStatus, now time.Time, minInterval time.Duration) bool {
	if status == nil || status.LastRunAt == "" {
		return true
	}
	lastRun, err := time.Parse(time.RFC3339, status.LastRunAt)
	if err != nil {
		return true
	}
	return now.UTC().Sub(lastRun.UTC()) >= minInterval
}
