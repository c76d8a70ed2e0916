// Package jobs provides persistent background jobs: a bbolt-backed store and
// a worker pool that executes queued jobs.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusStarted  Status = "STARTED"
	StatusProgress Status = "PROGRESS"
	StatusSuccess  Status = "SUCCESS"
	StatusFailure  Status = "FAILURE"
)

// Job is one background unit of work. InputPaths are uploaded files the job
// consumes; they are removed once the job reaches a terminal state. On
// success only ResultPath survives.
type Job struct {
	ID             string    `json:"id"`
	Status         Status    `json:"status"`
	Detail         string    `json:"detail,omitempty"`
	InputPaths     []string  `json:"input_paths,omitempty"`
	ResultPath     string    `json:"result_path,omitempty"`
	ResultFilename string    `json:"result_filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewJob creates a pending job with a fresh ID.
func NewJob(inputPaths ...string) Job {
	now := time.Now().UTC()
	return Job{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		InputPaths: inputPaths,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Done reports whether the job reached a terminal state.
func (j Job) Done() bool {
	return j.Status == StatusSuccess || j.Status == StatusFailure
}

// ExpiredAt reports whether the job is older than ttl at the given time.
func (j Job) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(j.UpdatedAt) > ttl
}
