package model

import "time"

// JobStatus represents the lifecycle state of an analysis job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one submitted document+query unit of work, tracked from
// submission to its terminal state. Result and Error are mutually
// exclusive: exactly one of them is set once the job reaches a
// terminal status, and CompletedAt is set on that same transition.
type Job struct {
	ID          string     `json:"analysis_id" gorm:"type:varchar(36);primaryKey"`
	Filename    string     `json:"filename" gorm:"type:varchar(255);not null"`
	Query       string     `json:"query" gorm:"type:text;not null"`
	Status      JobStatus  `json:"status" gorm:"type:varchar(16);not null;index"`
	Result      *string    `json:"result,omitempty" gorm:"type:text"`
	Error       *string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName keeps the historical table name used by earlier deployments.
func (Job) TableName() string { return "analysis_results" }
