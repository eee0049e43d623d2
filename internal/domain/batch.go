package domain

// BatchStatus enumerates derived batch lifecycle states.
type BatchStatus string

const (
	BatchStatusQueued              BatchStatus = "queued"
	BatchStatusRunning             BatchStatus = "running"
	BatchStatusCompleted           BatchStatus = "completed"
	BatchStatusCompletedWithErrors BatchStatus = "completed_with_errors"
)

// Quality levels accepted by the image edit service.
const (
	QualityAuto   = "auto"
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// Output formats accepted by the image edit service.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
	FormatJPEG = "jpeg"
)

const (
	MinConcurrency = 1
	MaxConcurrency = 10
)

// ValidQuality reports whether q is one of the accepted quality levels.
func ValidQuality(q string) bool {
	switch q {
	case QualityAuto, QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

// ValidOutputFormat reports whether f is one of the accepted output formats.
func ValidOutputFormat(f string) bool {
	switch f {
	case FormatPNG, FormatWebP, FormatJPEG:
		return true
	}
	return false
}

// OutputExtension maps an output format onto the file extension used for
// generated artifacts. The service's "jpeg" format is written as ".jpg".
func OutputExtension(format string) string {
	if format == FormatJPEG {
		return "jpg"
	}
	return format
}

// GenerationConfig is the run configuration shared by every job of a batch.
type GenerationConfig struct {
	Model        string
	Size         string
	Quality      string
	OutputFormat string
	Concurrency  int
}

// Batch is one bulk submission spanning the cross-product of uploaded images
// and prompts. A batch owns its jobs exclusively for their entire lifetime.
type Batch struct {
	ID             string
	Prompts        []string
	ImageFilenames []string
	Jobs           []*Job
	Status         BatchStatus
	Config         GenerationConfig
	Error          string
}

// StatusCounts holds the per-status job tally for one batch.
type StatusCounts struct {
	Total      int
	Queued     int
	Submitting int
	Processing int
	Completed  int
	Failed     int
}

// Counts tallies the batch's jobs by status.
func (b *Batch) Counts() StatusCounts {
	c := StatusCounts{Total: len(b.Jobs)}
	for _, job := range b.Jobs {
		switch job.Status {
		case JobStatusQueued:
			c.Queued++
		case JobStatusSubmitting:
			c.Submitting++
		case JobStatusProcessing:
			c.Processing++
		case JobStatusCompleted:
			c.Completed++
		case JobStatusFailed:
			c.Failed++
		}
	}
	return c
}

// AggregateStatus derives a batch status from job counts. The rules are
// ordered and the first match wins:
//
//  1. no jobs → queued
//  2. any failed and every job terminal → completed_with_errors
//  3. all completed → completed
//  4. anything submitting or processing → running
//  5. all queued → queued
//  6. otherwise → running
//
// Rule 6 covers a mix of completed and still-queued jobs with nothing active;
// the batch keeps reporting running until the remaining jobs start.
func AggregateStatus(c StatusCounts) BatchStatus {
	switch {
	case c.Total == 0:
		return BatchStatusQueued
	case c.Failed > 0 && c.Completed+c.Failed == c.Total:
		return BatchStatusCompletedWithErrors
	case c.Completed == c.Total:
		return BatchStatusCompleted
	case c.Submitting > 0 || c.Processing > 0:
		return BatchStatusRunning
	case c.Queued == c.Total:
		return BatchStatusQueued
	default:
		return BatchStatusRunning
	}
}

// RecalculateStatus rederives the batch status from the current job counts.
func (b *Batch) RecalculateStatus() {
	b.Status = AggregateStatus(b.Counts())
}

// Job returns the job with the given id, or nil.
func (b *Batch) Job(jobID string) *Job {
	for _, job := range b.Jobs {
		if job.ID == jobID {
			return job
		}
	}
	return nil
}

// Clone returns a deep copy of the batch so callers can read it without
// holding the registry lock.
func (b *Batch) Clone() *Batch {
	out := &Batch{
		ID:             b.ID,
		Prompts:        append([]string(nil), b.Prompts...),
		ImageFilenames: append([]string(nil), b.ImageFilenames...),
		Jobs:           make([]*Job, len(b.Jobs)),
		Status:         b.Status,
		Config:         b.Config,
		Error:          b.Error,
	}
	for i, job := range b.Jobs {
		copied := *job
		out.Jobs[i] = &copied
	}
	return out
}
