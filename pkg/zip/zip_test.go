package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "one.png", MIME: "image/png", Data: []byte("first")},
		{Filename: "two.png", MIME: "image/png", Data: []byte("second")},
	})
	if archive == nil {
		t.Fatalf("archive is nil")
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entry count: %d", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "first" {
		t.Fatalf("entry contents: %q", data)
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	archive := ArchiveAssets(nil)
	if archive == nil {
		t.Fatalf("empty archive should still be a valid zip")
	}
	if _, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive))); err != nil {
		t.Fatalf("open empty archive: %v", err)
	}
}
