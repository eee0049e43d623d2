package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seanmmorais/mse-sora/internal/batch"
	"github.com/seanmmorais/mse-sora/internal/domain"
	zippkg "github.com/seanmmorais/mse-sora/pkg/zip"
)

const maxUploadBytes = 256 << 20

// CreateBatch accepts a multipart bulk submission: prompts_text (one prompt
// per line), one or more image files, and the run configuration fields.
func (a *App) CreateBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	prompts := batch.SplitPrompts(r.FormValue("prompts_text"))

	var images []batch.Upload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("failed to read upload %q", header.Filename))
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("failed to read upload %q", header.Filename))
				return
			}
			images = append(images, batch.Upload{Filename: header.Filename, Data: data})
		}
	}

	model := strings.TrimSpace(r.FormValue("model"))
	if model == "" {
		model = a.DefaultModel
	}
	size := strings.TrimSpace(r.FormValue("size"))
	if size == "" {
		size = "1024x1024"
	}
	quality := formValueDefault(r, "quality", domain.QualityMedium)
	format := formValueDefault(r, "output_format", domain.FormatPNG)
	concurrency := 1
	if raw := strings.TrimSpace(r.FormValue("concurrency")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "concurrency must be an integer")
			return
		}
		concurrency = parsed
	}

	created, _, err := a.Batches.Submit(r.Context(), batch.SubmitRequest{
		Prompts: prompts,
		Images:  images,
		Config: domain.GenerationConfig{
			Model:        model,
			Size:         size,
			Quality:      quality,
			OutputFormat: format,
			Concurrency:  concurrency,
		},
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"batch_id": created.ID, "batch": batchView(created)})
}

// GetBatch returns the current aggregated view of a batch.
func (a *App) GetBatch(w http.ResponseWriter, r *http.Request) {
	b, err := a.Batches.Get(chi.URLParam(r, "batchID"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, batchView(b))
}

// DownloadJobOutput streams one job's stored artifact.
func (a *App) DownloadJobOutput(w http.ResponseWriter, r *http.Request) {
	artifact, err := a.Batches.OutputFile(chi.URLParam(r, "batchID"), chi.URLParam(r, "jobID"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	http.ServeFile(w, r, artifact.Path)
}

// DownloadAllOutputs streams a zip archive of every completed artifact.
func (a *App) DownloadAllOutputs(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	artifacts, err := a.Batches.CompletedOutputs(batchID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if len(artifacts) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no completed outputs for this batch")
		return
	}
	var assets []zippkg.Asset
	for _, artifact := range artifacts {
		data, err := os.ReadFile(artifact.Path)
		if err != nil {
			a.Logger.Warn().Err(err).Str("path", artifact.Path).Msg("download-all: skipping unreadable artifact")
			continue
		}
		assets = append(assets, zippkg.Asset{Filename: artifact.Filename, MIME: artifact.ContentType, Data: data})
	}
	archive := zippkg.ArchiveAssets(assets)
	if archive == nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", batchID+"_outputs.zip"))
	_, _ = w.Write(archive)
}

func formValueDefault(r *http.Request, key, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return fallback
}

func batchView(b *domain.Batch) map[string]any {
	counts := b.Counts()
	jobs := make([]map[string]any, 0, len(b.Jobs))
	for _, job := range b.Jobs {
		jobs = append(jobs, jobView(job))
	}
	return map[string]any{
		"id":                b.ID,
		"status":            b.Status,
		"model":             b.Config.Model,
		"size":              b.Config.Size,
		"quality":           b.Config.Quality,
		"output_format":     b.Config.OutputFormat,
		"concurrency":       b.Config.Concurrency,
		"image_count":       len(b.ImageFilenames),
		"prompt_count":      len(b.Prompts),
		"combination_count": len(b.Jobs),
		"counts": map[string]int{
			"total":      counts.Total,
			"queued":     counts.Queued,
			"submitting": counts.Submitting,
			"processing": counts.Processing,
			"completed":  counts.Completed,
			"failed":     counts.Failed,
		},
		"error": b.Error,
		"jobs":  jobs,
	}
}

func jobView(job *domain.Job) map[string]any {
	var downloadURL any
	if job.Status == domain.JobStatusCompleted && job.OutputPath != "" {
		downloadURL = fmt.Sprintf("/api/batches/%s/jobs/%s/download", job.BatchID, job.ID)
	}
	return map[string]any{
		"id":             job.ID,
		"batch_id":       job.BatchID,
		"sequence":       job.Sequence,
		"image_filename": job.ImageFilename,
		"prompt":         job.Prompt,
		"status":         job.Status,
		"api_status":     job.APIStatus,
		"revised_prompt": job.RevisedPrompt,
		"error":          job.Error,
		"download_url":   downloadURL,
		"preview_url":    downloadURL,
	}
}
