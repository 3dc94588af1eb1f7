package dto

import "time"

// BatchRiskBreakdown is the per-batch slice of a risk summary.
type BatchRiskBreakdown struct {
	BatchID         string `json:"batch_id"`
	InactiveCount   int    `json:"inactive_count"`
	MissedTaskCount int    `json:"missed_task_count"`
}

// RiskSummaryResponse is the payload of the on-demand stats endpoint.
type RiskSummaryResponse struct {
	InactiveCount   int                  `json:"inactive_count"`
	MissedTaskCount int                  `json:"missed_task_count"`
	PerBatch        []BatchRiskBreakdown `json:"per_batch"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// NotificationStatusResponse is returned by the status poll endpoint when an
// alert was generated within the freshness window.
type NotificationStatusResponse struct {
	Message   string    `json:"message"`
	LastRunAt time.Time `json:"last_run_at"`
}
