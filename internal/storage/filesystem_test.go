package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileStoreCreatesTrees(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data")
	if _, err := NewFileStore(base); err != nil {
		t.Fatalf("new file store: %v", err)
	}
	for _, dir := range []string{"uploads", "outputs"} {
		info, err := os.Stat(filepath.Join(base, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("missing %s tree: %v", dir, err)
		}
	}
}

func TestNewFileStoreRequiresBasePath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("expected error for blank base path")
	}
}

func TestSaveUpload(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	path, err := s.SaveUpload("batch-1", 2, "cat.png", []byte("bytes"))
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	want := filepath.Join(s.BasePath(), "uploads", "batch-1", "002_cat.png")
	if path != want {
		t.Fatalf("upload path: %q want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "bytes" {
		t.Fatalf("upload contents: %q err %v", data, err)
	}
}

func TestSaveUploadStripsDirectories(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	path, err := s.SaveUpload("batch-1", 1, "../../escape/cat.png", []byte("x"))
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if filepath.Base(path) != "001_cat.png" {
		t.Fatalf("traversal not stripped: %q", path)
	}
	if filepath.Dir(path) != filepath.Join(s.BasePath(), "uploads", "batch-1") {
		t.Fatalf("upload escaped batch directory: %q", path)
	}
}

func TestWriteOutputLazilyCreatesBatchDirectory(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	batchDir := filepath.Join(s.BasePath(), "outputs", "batch-9")
	if _, err := os.Stat(batchDir); !os.IsNotExist(err) {
		t.Fatalf("batch output directory should not pre-exist")
	}
	path, err := s.WriteOutput("batch-9", "job-1", "jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("write output: %v", err)
	}
	if path != filepath.Join(batchDir, "job-1.jpg") {
		t.Fatalf("output path: %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("output contents: %q err %v", data, err)
	}
}
