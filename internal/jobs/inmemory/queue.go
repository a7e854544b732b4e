package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/google/uuid"
)

// DefaultMaxRetries is applied to jobs published without a retry budget.
const DefaultMaxRetries = 3

// Queue is a channel-backed publisher and consumer for a single process.
// Jobs still buffered when the process exits are lost.
type Queue struct {
	jobChan   chan *jobs.MirrorTransactionJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	workers   int
	closed    bool

	// backoff returns the delay before the given retry attempt.
	backoff func(retry int) time.Duration
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before publishing blocks.
func NewQueue(bufferSize, workers int, store jobs.JobStore) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobChan:   make(chan *jobs.MirrorTransactionJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   workers,
		backoff: func(retry int) time.Duration {
			return time.Duration(retry) * time.Second
		},
	}
}

// PublishMirrorTransaction implements the Publisher interface.
func (q *Queue) PublishMirrorTransaction(ctx context.Context, job *jobs.MirrorTransactionJob) error {
	// Not held across the send: Stop needs the write lock to close closeChan.
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return fmt.Errorf("PublishMirrorTransaction: queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Action == "" {
		job.Action = jobs.MirrorUpsert
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = DefaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishMirrorTransaction: save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("PublishMirrorTransaction: queue is closed")
	}
}

// Start implements the Consumer interface. It launches the configured number of
// workers, each calling handler for one job at a time.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("Start: queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job, re-enqueueing it with a growing delay on failure.
func (q *Queue) processJob(ctx context.Context, job *jobs.MirrorTransactionJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying

			retry := *job
			time.AfterFunc(q.backoff(job.RetryCount), func() {
				retry.Status = jobs.JobStatusPending
				retry.StartedAt = nil
				retry.CompletedAt = nil
				_ = q.PublishMirrorTransaction(ctx, &retry)
			})
		} else {
			job.Status = jobs.JobStatusFailed
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
