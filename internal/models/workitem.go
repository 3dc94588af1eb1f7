package models

import "time"

// WorkItem is an assignment with a deadline, scoped to a single batch.
// Deadline is the raw YYYY-MM-DD text the legacy store exported; malformed
// values are excluded during aggregation rather than failing the scan.
type WorkItem struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Deadline  string    `db:"deadline" json:"deadline"`
	BatchID   string    `db:"assigned_batch_id" json:"assigned_batch_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Submission records that a subject handed in a work item. At most one row
// exists per (work item, subject) pair; absence past the deadline is a miss.
type Submission struct {
	WorkItemID  string    `db:"assignment_id" json:"assignment_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	Status      string    `db:"status" json:"status"`
}
