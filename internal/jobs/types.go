package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeMirrorTransaction copies a transaction change to the external mirror.
	JobTypeMirrorTransaction JobType = "mirror_transaction"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// MirrorAction says what the mirror should do with the transaction.
type MirrorAction string

const (
	// MirrorUpsert creates or refreshes the mirrored row.
	MirrorUpsert MirrorAction = "upsert"
	// MirrorArchive removes the mirrored row after the transaction was deleted.
	MirrorArchive MirrorAction = "archive"
)

// MirrorTransactionJob asks a worker to mirror one transaction.
type MirrorTransactionJob struct {
	JobID         string       `json:"job_id"`
	TransactionID string       `json:"transaction_id"`
	UserEmail     string       `json:"user_email"`
	Action        MirrorAction `json:"action"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *MirrorTransactionJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *MirrorTransactionJob) GetType() JobType {
	return JobTypeMirrorTransaction
}

// GetStatus implements the Job interface.
func (j *MirrorTransactionJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishMirrorTransaction enqueues a mirror job.
	PublishMirrorTransaction(ctx context.Context, job *MirrorTransactionJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore records job state so it can be inspected while the process runs.
type JobStore interface {
	SaveJob(ctx context.Context, job *MirrorTransactionJob) error
	GetJob(ctx context.Context, jobID string) (*MirrorTransactionJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*MirrorTransactionJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserEmail     string
	TransactionID string
	Status        JobStatus

	Limit  int
	Offset int
}
