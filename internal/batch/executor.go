package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/seanmmorais/mse-sora/internal/domain"
	"github.com/seanmmorais/mse-sora/internal/imagegen"
	"github.com/seanmmorais/mse-sora/internal/storage"
)

// Executor performs the external work for one job and persists its artifact.
// It returns the output path and the service's revised prompt on success.
type Executor interface {
	Execute(ctx context.Context, cfg domain.GenerationConfig, job domain.Job) (outputPath, revisedPrompt string, err error)
}

// EditExecutor runs a job through the image edit service and writes the
// decoded result into the batch's output directory.
type EditExecutor struct {
	client *imagegen.Client
	files  *storage.FileStore
}

func NewEditExecutor(client *imagegen.Client, files *storage.FileStore) *EditExecutor {
	return &EditExecutor{client: client, files: files}
}

func (e *EditExecutor) Execute(ctx context.Context, cfg domain.GenerationConfig, job domain.Job) (string, string, error) {
	data, err := os.ReadFile(job.ImagePath)
	if err != nil {
		return "", "", fmt.Errorf("read source image: %w", err)
	}
	result, err := e.client.EditImage(ctx, imagegen.EditRequest{
		ImageFilename: job.ImageFilename,
		ImageData:     data,
		Prompt:        job.Prompt,
		Model:         cfg.Model,
		Size:          cfg.Size,
		Quality:       cfg.Quality,
		OutputFormat:  cfg.OutputFormat,
	})
	if err != nil {
		return "", "", err
	}
	outputPath, err := e.files.WriteOutput(job.BatchID, job.ID, domain.OutputExtension(cfg.OutputFormat), result.Data)
	if err != nil {
		return "", "", err
	}
	return outputPath, result.RevisedPrompt, nil
}
