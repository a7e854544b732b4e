package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/finflow/internal/jobs"
)

// Store keeps job state in memory. Data is lost on restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.MirrorTransactionJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.MirrorTransactionJob),
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.MirrorTransactionJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.MirrorTransactionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob: job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface. Jobs come back oldest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.MirrorTransactionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.MirrorTransactionJob
	for _, job := range s.jobs {
		if filter.UserEmail != "" && job.UserEmail != filter.UserEmail {
			continue
		}
		if filter.TransactionID != "" && job.TransactionID != filter.TransactionID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].JobID < result[j].JobID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.MirrorTransactionJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UpdateJobStatus implements the JobStore interface.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("UpdateJobStatus: job not found: %s", jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
