package imagegen

// EditRequest carries one image edit call: a single source image, the prompt
// to apply, and the batch's run configuration. Exactly one result is
// requested per call.
type EditRequest struct {
	ImageFilename string
	ImageData     []byte
	Prompt        string
	Model         string
	Size          string
	Quality       string
	OutputFormat  string
}

// EditResult is the decoded service response for one edit call.
type EditResult struct {
	Data          []byte
	RevisedPrompt string
}
