// Package store persists hosts, assessment jobs, and rendered reports
// in SQLite.
package store

import (
	"errors"
	"time"
)

var (
	ErrHostNotFound   = errors.New("host not found")
	ErrHostExists     = errors.New("host with this hostname already exists")
	ErrJobNotFound    = errors.New("job not found")
	ErrReportNotFound = errors.New("report not found")
)

// Host is a machine known to the console.
type Host struct {
	ID              string     `json:"id"`
	Hostname        string     `json:"hostname"`
	Address         string     `json:"address,omitempty"`
	Tags            []string   `json:"tags"`
	Source          string     `json:"source,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	IsActive        bool       `json:"is_active"`
	AllowPrivileged bool       `json:"allow_privileged"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// JobStatus is the lifecycle state of an assessment job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is one requested assessment of a host.
type Job struct {
	ID           string     `json:"id"`
	HostID       string     `json:"host_id"`
	Status       JobStatus  `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Report is the rendered output of one completed job. RawPayload holds
// the JSON-serialized assessment for downstream consumers.
type Report struct {
	ID               string    `json:"id"`
	JobID            string    `json:"job_id"`
	RenderedMarkdown string    `json:"rendered_markdown"`
	RawPayload       string    `json:"raw_payload,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
