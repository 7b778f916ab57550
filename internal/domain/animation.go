package domain

import "time"

// JobStatus enumerates animation job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// AnimationJob tracks one video generation run for a composite. At most one
// job is active per composite; a new animation request replaces the old job.
type AnimationJob struct {
	ID        string
	Operation string
	Status    JobStatus
	Video     []byte
	MIME      string
	Notice    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Done reports whether the job reached a terminal status.
func (j *AnimationJob) Done() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}
