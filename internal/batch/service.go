// Package batch implements the bulk image edit engine: batch submission,
// bounded-concurrency execution, and status aggregation.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/seanmmorais/mse-sora/internal/domain"
	"github.com/seanmmorais/mse-sora/internal/imagegen"
	"github.com/seanmmorais/mse-sora/internal/infra"
	"github.com/seanmmorais/mse-sora/internal/storage"
	"github.com/seanmmorais/mse-sora/internal/store"
)

const (
	batchIDLength = 12
	jobIDLength   = 10
)

// Upload is one source image as submitted by the caller.
type Upload struct {
	Filename string
	Data     []byte
}

// SubmitRequest is a validated-on-entry bulk submission.
type SubmitRequest struct {
	Prompts []string
	Images  []Upload
	Config  domain.GenerationConfig
}

// Artifact points at one stored job output.
type Artifact struct {
	Path        string
	Filename    string
	ContentType string
}

// Service exposes the engine's operation surface to the transport layer.
type Service struct {
	registry  *store.Registry
	files     *storage.FileStore
	scheduler *Scheduler
	client    *imagegen.Client
	logger    infra.Logger
}

func NewService(registry *store.Registry, files *storage.FileStore, scheduler *Scheduler, client *imagegen.Client, logger infra.Logger) *Service {
	return &Service{
		registry:  registry,
		files:     files,
		scheduler: scheduler,
		client:    client,
		logger:    logger,
	}
}

// SplitPrompts turns prompt text into one prompt per non-blank line.
func SplitPrompts(text string) []string {
	var prompts []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			prompts = append(prompts, trimmed)
		}
	}
	return prompts
}

// Submit validates a bulk request, persists the uploaded images, creates the
// batch with one job per (image, prompt) pair, and starts the scheduler.
// Nothing is created when validation fails. The returned handle resolves once
// every job is terminal.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*domain.Batch, *Handle, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	batchID := newID(batchIDLength)
	imageFilenames := make([]string, 0, len(req.Images))
	imagePaths := make([]string, 0, len(req.Images))
	for i, upload := range req.Images {
		safe := filepath.Base(strings.ReplaceAll(upload.Filename, "\\", "/"))
		path, err := s.files.SaveUpload(batchID, i+1, upload.Filename, upload.Data)
		if err != nil {
			return nil, nil, err
		}
		imageFilenames = append(imageFilenames, safe)
		imagePaths = append(imagePaths, path)
	}

	// Jobs enumerate the cross-product in image-major, prompt-minor order.
	jobs := make([]*domain.Job, 0, len(req.Images)*len(req.Prompts))
	seq := 1
	for i, filename := range imageFilenames {
		for _, prompt := range req.Prompts {
			jobs = append(jobs, &domain.Job{
				ID:            newID(jobIDLength),
				BatchID:       batchID,
				Sequence:      seq,
				ImageFilename: filename,
				ImagePath:     imagePaths[i],
				Prompt:        prompt,
				Status:        domain.JobStatusQueued,
			})
			seq++
		}
	}

	batch := &domain.Batch{
		ID:             batchID,
		Prompts:        req.Prompts,
		ImageFilenames: imageFilenames,
		Jobs:           jobs,
		Config:         req.Config,
	}
	if err := s.registry.Create(batch); err != nil {
		return nil, nil, err
	}
	s.logger.Info().
		Str("batch_id", batchID).
		Int("jobs", len(jobs)).
		Int("concurrency", req.Config.Concurrency).
		Msg("batch: submitted")

	// Jobs outlive the request; no cancellation once a batch starts.
	handle := s.scheduler.Start(context.WithoutCancel(ctx), batch)
	snapshot, err := s.registry.Get(batchID)
	if err != nil {
		return nil, nil, err
	}
	return snapshot, handle, nil
}

// Get returns the current aggregated view of a batch.
func (s *Service) Get(batchID string) (*domain.Batch, error) {
	return s.registry.Get(batchID)
}

// OutputFile resolves a completed job's stored artifact along with the
// filename a download should carry.
func (s *Service) OutputFile(batchID, jobID string) (*Artifact, error) {
	batch, err := s.registry.Get(batchID)
	if err != nil {
		return nil, err
	}
	job := batch.Job(jobID)
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	if job.OutputPath == "" {
		return nil, fmt.Errorf("job %s output not ready: %w", jobID, domain.ErrNotFound)
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		return nil, fmt.Errorf("job %s output file missing: %w", jobID, domain.ErrNotFound)
	}
	return &Artifact{
		Path:        job.OutputPath,
		Filename:    downloadFilename(batch, job),
		ContentType: "image/" + batch.Config.OutputFormat,
	}, nil
}

// CompletedOutputs lists the artifacts of every completed job whose output
// file still exists, in sequence order.
func (s *Service) CompletedOutputs(batchID string) ([]Artifact, error) {
	batch, err := s.registry.Get(batchID)
	if err != nil {
		return nil, err
	}
	var artifacts []Artifact
	for _, job := range batch.Jobs {
		if job.Status != domain.JobStatusCompleted || job.OutputPath == "" {
			continue
		}
		if _, err := os.Stat(job.OutputPath); err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Path:        job.OutputPath,
			Filename:    downloadFilename(batch, job),
			ContentType: "image/" + batch.Config.OutputFormat,
		})
	}
	return artifacts, nil
}

func (s *Service) validate(req SubmitRequest) error {
	if len(req.Prompts) == 0 {
		return fmt.Errorf("provide at least one prompt (one per line): %w", domain.ErrInvalidInput)
	}
	if len(req.Images) == 0 {
		return fmt.Errorf("upload at least one image: %w", domain.ErrInvalidInput)
	}
	for i, upload := range req.Images {
		if strings.TrimSpace(upload.Filename) == "" {
			return fmt.Errorf("image %d is missing a filename: %w", i+1, domain.ErrInvalidInput)
		}
		if len(upload.Data) == 0 {
			return fmt.Errorf("image %d is empty: %w", i+1, domain.ErrInvalidInput)
		}
	}
	cfg := req.Config
	if cfg.Concurrency < domain.MinConcurrency || cfg.Concurrency > domain.MaxConcurrency {
		return fmt.Errorf("concurrency must be between %d and %d: %w", domain.MinConcurrency, domain.MaxConcurrency, domain.ErrInvalidInput)
	}
	if !domain.ValidQuality(cfg.Quality) {
		return fmt.Errorf("quality must be auto, low, medium, or high: %w", domain.ErrInvalidInput)
	}
	if !domain.ValidOutputFormat(cfg.OutputFormat) {
		return fmt.Errorf("output_format must be png, webp, or jpeg: %w", domain.ErrInvalidInput)
	}
	if !s.client.Configured() {
		return fmt.Errorf("OPENAI_API_KEY is not configured on the server: %w", domain.ErrNotConfigured)
	}
	return nil
}

func downloadFilename(batch *domain.Batch, job *domain.Job) string {
	stem := strings.TrimSuffix(job.ImageFilename, filepath.Ext(job.ImageFilename))
	ext := domain.OutputExtension(batch.Config.OutputFormat)
	return fmt.Sprintf("%s_%03d_%s.%s", batch.ID, job.Sequence, stem, ext)
}

func newID(length int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if length < len(id) {
		return id[:length]
	}
	return id
}
