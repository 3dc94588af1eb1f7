package models

import "time"

// InactiveSubject is one entry of the inactivity report. LastActive is nil
// when the subject never logged in.
type InactiveSubject struct {
	ID         string     `json:"id"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email"`
	BatchID    string     `json:"batch_id"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// Defaulter is a subject that did not submit against a past-deadline work item.
type Defaulter struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// MissedWorkItem groups defaulters under the work item they missed. Items
// with zero defaulters are never materialised.
type MissedWorkItem struct {
	WorkItemID string      `json:"work_item_id"`
	Title      string      `json:"title"`
	Deadline   time.Time   `json:"deadline"`
	BatchID    string      `json:"batch_id"`
	Defaulters []Defaulter `json:"defaulters"`
}

// RiskResult is the transient output of one aggregation pass. It is rebuilt
// from store state on every cycle and never cached across cycles.
type RiskResult struct {
	Inactive []InactiveSubject `json:"inactive"`
	Missed   []MissedWorkItem  `json:"missed"`
}

// Empty reports whether there is nothing to alert on.
func (r RiskResult) Empty() bool {
	return len(r.Inactive) == 0 && len(r.Missed) == 0
}
