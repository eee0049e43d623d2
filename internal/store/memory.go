// Package store keeps the in-process registry of batches and jobs. There is
// no durable backing store: a restart loses all batch state, which is a
// documented limitation of the service.
package store

import (
	"fmt"
	"sync"

	"github.com/seanmmorais/mse-sora/internal/domain"
)

// Registry is a concurrency-safe in-memory registry of batches. One mutex
// guards the whole registry; job-completion events are infrequent relative to
// external-call latency, so contention stays low. The lock is only ever held
// for in-memory field assignment and status recomputation, never across
// network or disk I/O.
type Registry struct {
	mu      sync.Mutex
	batches map[string]*domain.Batch
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{batches: make(map[string]*domain.Batch)}
}

// Create inserts a fully-formed batch together with all of its jobs in one
// atomic step.
func (r *Registry) Create(batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.batches[batch.ID]; exists {
		return fmt.Errorf("batch %s: %w", batch.ID, domain.ErrConflict)
	}
	batch.RecalculateStatus()
	r.batches[batch.ID] = batch
	return nil
}

// Get returns a deep copy of the batch so the caller can read it without
// observing concurrent mutation.
func (r *Registry) Get(batchID string) (*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	return batch.Clone(), nil
}

// MarkSubmitting moves a job to submitting and clears any stale error.
func (r *Registry) MarkSubmitting(batchID, jobID string) error {
	return r.update(batchID, jobID, func(job *domain.Job) {
		job.Status = domain.JobStatusSubmitting
		job.APIStatus = string(domain.JobStatusSubmitting)
		job.Error = ""
	})
}

// MarkProcessing moves a job to processing.
func (r *Registry) MarkProcessing(batchID, jobID string) error {
	return r.update(batchID, jobID, func(job *domain.Job) {
		job.Status = domain.JobStatusProcessing
		job.APIStatus = string(domain.JobStatusProcessing)
	})
}

// MarkCompleted records the job's output artifact and the service's revised
// prompt, then moves it to completed. The output file must be fully written
// before this is called so the path is never observable mid-write.
func (r *Registry) MarkCompleted(batchID, jobID, outputPath, revisedPrompt string) error {
	return r.update(batchID, jobID, func(job *domain.Job) {
		job.Status = domain.JobStatusCompleted
		job.APIStatus = string(domain.JobStatusCompleted)
		job.RevisedPrompt = revisedPrompt
		job.OutputPath = outputPath
	})
}

// MarkFailed moves a job to failed with the captured error message.
func (r *Registry) MarkFailed(batchID, jobID, message string) error {
	return r.update(batchID, jobID, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.APIStatus = string(domain.JobStatusFailed)
		job.Error = message
	})
}

// RecalculateStatus rederives the batch status without touching any job. The
// scheduler calls this once after every job has reached a terminal state.
func (r *Registry) RecalculateStatus(batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	batch.RecalculateStatus()
	return nil
}

// update performs one atomic read-modify-write of a job and recomputes the
// owning batch's status inside the same critical section.
func (r *Registry) update(batchID, jobID string, mutate func(*domain.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	job := batch.Job(jobID)
	if job == nil {
		return fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	mutate(job)
	batch.RecalculateStatus()
	return nil
}
