// Package jobs defines the asynchronous unit of work that carries a
// submitted statement into the pipeline, plus the queue abstractions it
// moves through.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestStatement runs the full ingestion pipeline for one
	// submitted statement.
	JobTypeIngestStatement JobType = "ingest_statement"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// IngestStatementJob is one statement ingestion run. The payload mirrors the
// pipeline request; the job id doubles as the run identifier returned to the
// submitting client.
type IngestStatementJob struct {
	JobID string `json:"job_id"`

	UserID      string `json:"user_id"`
	StatementID string `json:"statement_id"`
	DocumentKey string `json:"document_key"`
	Issuer      string `json:"issuer"`
	CardLast4   string `json:"card_last4"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the failure detail for infrastructure errors; pipeline
	// stage failures finalize the statement instead and leave this empty.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface over job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *IngestStatementJob) GetID() string        { return j.JobID }
func (j *IngestStatementJob) GetType() JobType     { return JobTypeIngestStatement }
func (j *IngestStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues ingestion jobs. The abstraction keeps the API handler
// independent of the queue implementation.
type Publisher interface {
	PublishIngestStatement(ctx context.Context, job *IngestStatementJob) error
	Close() error
}

// Consumer runs a handler over queued jobs.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error means the job failed and
// may be retried by the queue.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *IngestStatementJob) error
	GetJob(ctx context.Context, jobID string) (*IngestStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestStatementJob, error)
}

// JobFilter restricts ListJobs output.
type JobFilter struct {
	StatementID string
	Status      JobStatus
	Limit       int
	Offset      int
}
