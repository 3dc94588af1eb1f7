package models

import "time"

// RunStatusID is the key of the singleton run_status row.
const RunStatusID = 1

// RunStatus is the durable marker of when the notification pipeline last
// completed. LastRunAt stays RFC3339 text; an unparseable value is treated
// as "never run" so a corrupt marker can only cause an extra alert, never a
// silently skipped one.
type RunStatus struct {
	ID            int       `db:"id" json:"-"`
	LastRunAt     string    `db:"last_run_at" json:"last_run_at"`
	LatestMessage string    `db:"latest_message" json:"latest_message"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
