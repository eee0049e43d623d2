package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func editJSON(b64, revised string) map[string]any {
	return map[string]any{
		"data": []map[string]string{{"b64_json": b64, "revised_prompt": revised}},
	}
}

func TestEditImageSuccess(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/edits" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		for field, want := range map[string]string{
			"model":         "gpt-image-1",
			"prompt":        "make it blue",
			"size":          "1024x1024",
			"quality":       "medium",
			"output_format": "png",
			"n":             "1",
		} {
			if got := r.FormValue(field); got != want {
				t.Fatalf("field %s: got %q want %q", field, got, want)
			}
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "cat.png" {
			t.Fatalf("upload filename: %s", header.Filename)
		}
		uploaded, _ := io.ReadAll(file)
		if string(uploaded) != string(payload) {
			t.Fatalf("upload bytes mismatch")
		}
		_ = json.NewEncoder(w).Encode(editJSON(base64.StdEncoding.EncodeToString([]byte("result-bytes")), "a bluer cat"))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	result, err := client.EditImage(context.Background(), EditRequest{
		ImageFilename: "cat.png",
		ImageData:     payload,
		Prompt:        "make it blue",
		Model:         "gpt-image-1",
		Size:          "1024x1024",
		Quality:       "medium",
		OutputFormat:  "png",
	})
	if err != nil {
		t.Fatalf("EditImage error: %v", err)
	}
	if string(result.Data) != "result-bytes" {
		t.Fatalf("decoded bytes mismatch: %q", result.Data)
	}
	if result.RevisedPrompt != "a bluer cat" {
		t.Fatalf("revised prompt: %q", result.RevisedPrompt)
	}
}

func TestEditImageMissingKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.EditImage(context.Background(), EditRequest{ImageData: []byte{1}}); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestEditImageHTTPErrorIsTruncated(t *testing.T) {
	long := strings.Repeat("x", 2000)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, long, http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.EditImage(context.Background(), EditRequest{ImageFilename: "a.png", ImageData: []byte{1}})
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "image edit failed (400)") {
		t.Fatalf("error message: %v", err)
	}
	if len(err.Error()) > maxErrorBody+100 {
		t.Fatalf("error body not truncated: %d chars", len(err.Error()))
	}
}

func TestEditImageEmptyData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.EditImage(context.Background(), EditRequest{ImageFilename: "a.png", ImageData: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "did not include image data") {
		t.Fatalf("expected empty-data error, got %v", err)
	}
}

func TestEditImageMissingB64(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"revised_prompt": "r"}}})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.EditImage(context.Background(), EditRequest{ImageFilename: "a.png", ImageData: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "b64_json") {
		t.Fatalf("expected missing b64_json error, got %v", err)
	}
}

func TestEditImageUndecodablePayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(editJSON("%%%not-base64%%%", ""))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.EditImage(context.Background(), EditRequest{ImageFilename: "a.png", ImageData: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "decode returned image data") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestTruncateError(t *testing.T) {
	if got := TruncateError(nil); got != "" {
		t.Fatalf("nil error should truncate to empty, got %q", got)
	}
	long := errors.New(strings.Repeat("e", maxErrorBody+50))
	if got := TruncateError(long); len(got) != maxErrorBody {
		t.Fatalf("truncated length: %d", len(got))
	}
}
