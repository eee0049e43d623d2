// Package imagegen talks to an OpenAI-compatible image edit endpoint.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response is kept on the job, so a
// misbehaving service cannot blow up stored error messages.
const maxErrorBody = 500

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client issues multipart edit requests against the /images/edits endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

type editResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// EditImage performs one image edit call and returns the decoded result.
// Exactly one output is requested. Any deviation from the expected response
// shape is reported as an error; the caller decides what to do with it, this
// layer never retries.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (*EditResult, error) {
	if c == nil {
		return nil, errors.New("imagegen: client not configured")
	}
	if c.token == "" {
		return nil, errors.New("imagegen: API key is missing")
	}
	if len(req.ImageData) == 0 {
		return nil, errors.New("imagegen: image data required")
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, req.ImageFilename))
	header.Set("Content-Type", contentTypeFor(req.ImageFilename))
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("imagegen: build form: %w", err)
	}
	if _, err := part.Write(req.ImageData); err != nil {
		return nil, fmt.Errorf("imagegen: build form: %w", err)
	}
	fields := map[string]string{
		"model":         req.Model,
		"prompt":        req.Prompt,
		"size":          req.Size,
		"quality":       req.Quality,
		"output_format": req.OutputFormat,
		"n":             "1",
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("imagegen: build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("imagegen: build form: %w", err)
	}

	endpoint := c.baseURL + "/images/edits"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("imagegen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("imagegen: image edit failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var out editResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("imagegen: decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, errors.New("imagegen: response did not include image data")
	}
	item := out.Data[0]
	if item.B64JSON == "" {
		return nil, errors.New("imagegen: response did not include b64_json output")
	}
	decoded, err := base64.StdEncoding.DecodeString(item.B64JSON)
	if err != nil {
		return nil, fmt.Errorf("imagegen: decode returned image data: %w", err)
	}
	return &EditResult{Data: decoded, RevisedPrompt: item.RevisedPrompt}, nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// TruncateError bounds an error message before it is stored on a job.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
