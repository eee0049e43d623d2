package domain

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusSubmitting JobStatus = "submitting"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a job can no longer change status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one (image, prompt) unit of work executed against the image edit
// service. Jobs are created once at batch creation and never added or removed
// afterwards; only status and result fields mutate.
type Job struct {
	ID            string
	BatchID       string
	Sequence      int
	ImageFilename string
	ImagePath     string
	Prompt        string
	Status        JobStatus
	APIStatus     string
	RevisedPrompt string
	OutputPath    string
	Error         string
}
