package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/seanmmorais/mse-sora/internal/domain"
	"github.com/seanmmorais/mse-sora/internal/imagegen"
	"github.com/seanmmorais/mse-sora/internal/infra"
	"github.com/seanmmorais/mse-sora/internal/store"
)

// Handle lets the caller await a running batch. HTTP handlers ignore it;
// tests use it to wait for completion deterministically.
type Handle struct {
	done chan struct{}
}

// Wait blocks until every job of the batch has reached a terminal state and
// the final batch status has been recomputed.
func (h *Handle) Wait() {
	<-h.done
}

// Scheduler runs a batch's jobs under the batch's concurrency ceiling.
type Scheduler struct {
	registry *store.Registry
	executor Executor
	logger   infra.Logger
}

func NewScheduler(registry *store.Registry, executor Executor, logger infra.Logger) *Scheduler {
	return &Scheduler{registry: registry, executor: executor, logger: logger}
}

// Start launches every job of the batch concurrently, bounded by a counting
// permit pool sized to the batch's concurrency setting. Each job acquires one
// permit before doing any work and releases it on every exit path. There is
// no cancellation: all jobs run to a terminal state.
func (s *Scheduler) Start(ctx context.Context, batch *domain.Batch) *Handle {
	limit := batch.Config.Concurrency
	if limit < domain.MinConcurrency {
		limit = domain.MinConcurrency
	}
	sem := semaphore.NewWeighted(int64(limit))

	handle := &Handle{done: make(chan struct{})}
	var wg sync.WaitGroup
	for _, job := range batch.Jobs {
		wg.Add(1)
		go func(job domain.Job, cfg domain.GenerationConfig) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				s.fail(batch.ID, job.ID, fmt.Errorf("acquire permit: %w", err))
				return
			}
			defer sem.Release(1)
			s.runJob(ctx, cfg, job)
		}(*job, batch.Config)
	}

	go func() {
		wg.Wait()
		if err := s.registry.RecalculateStatus(batch.ID); err != nil {
			s.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("scheduler: final status recompute failed")
		}
		s.logger.Info().Str("batch_id", batch.ID).Msg("scheduler: batch finished")
		close(handle.done)
	}()
	return handle
}

// runJob walks one job through its state machine. A failure is confined to
// the job itself; sibling jobs keep running.
func (s *Scheduler) runJob(ctx context.Context, cfg domain.GenerationConfig, job domain.Job) {
	defer func() {
		if rec := recover(); rec != nil {
			s.fail(job.BatchID, job.ID, fmt.Errorf("unexpected fault: %v", rec))
		}
	}()

	if err := s.registry.MarkSubmitting(job.BatchID, job.ID); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("scheduler: mark submitting failed")
		return
	}
	if err := s.registry.MarkProcessing(job.BatchID, job.ID); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("scheduler: mark processing failed")
		return
	}

	outputPath, revisedPrompt, err := s.executor.Execute(ctx, cfg, job)
	if err != nil {
		s.fail(job.BatchID, job.ID, err)
		return
	}
	if err := s.registry.MarkCompleted(job.BatchID, job.ID, outputPath, revisedPrompt); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("scheduler: mark completed failed")
	}
}

func (s *Scheduler) fail(batchID, jobID string, cause error) {
	s.logger.Warn().Err(cause).Str("batch_id", batchID).Str("job_id", jobID).Msg("scheduler: job failed")
	if err := s.registry.MarkFailed(batchID, jobID, imagegen.TruncateError(cause)); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("scheduler: mark failed failed")
	}
}
