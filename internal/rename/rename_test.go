package rename

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seanmmorais/mse-sora/internal/domain"
)

func writeFiles(t *testing.T, dir string, names map[string]string) {
	t.Helper()
	for name, content := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func listNames(t *testing.T, dir string) map[string]bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

func TestValidateBaseName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"holiday", "holiday", false},
		{"  padded  ", "padded", false},
		{"two   words", "two words", false},
		{"", "", true},
		{"   ", "", true},
		{"bad/name", "", true},
		{`what?`, "", true},
		{"trailing ", "", true},
		{"trailing.", "", true},
	}
	for _, tc := range cases {
		got, err := ValidateBaseName(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("%q: expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenameBijection(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Zebra.png":    "zebra-bytes",
		"apple.png":    "apple-bytes",
		"Mango.PNG":    "mango-bytes",
		"ignore.txt":   "not a png",
		"another.webp": "also ignored",
	})

	result, err := Rename(dir, "vacation")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if len(result.Files) != 3 {
		t.Fatalf("renamed count: %d", len(result.Files))
	}

	// Case-insensitive name order decides the index assignment.
	want := []Mapping{
		{OldName: "apple.png", NewName: "vacation_1.png"},
		{OldName: "Mango.PNG", NewName: "vacation_2.png"},
		{OldName: "Zebra.png", NewName: "vacation_3.png"},
	}
	for i, mapping := range result.Files {
		if mapping != want[i] {
			t.Fatalf("mapping %d: got %+v want %+v", i, mapping, want[i])
		}
	}

	names := listNames(t, dir)
	for _, w := range want {
		if !names[w.NewName] {
			t.Fatalf("final file missing: %s", w.NewName)
		}
		if names[w.OldName] {
			t.Fatalf("original file still present: %s", w.OldName)
		}
	}
	if !names["ignore.txt"] || !names["another.webp"] {
		t.Fatalf("non-candidate files were touched")
	}
	if len(names) != 5 {
		t.Fatalf("total file count changed: %d", len(names))
	}

	contents := map[string]string{
		"vacation_1.png": "apple-bytes",
		"vacation_2.png": "mango-bytes",
		"vacation_3.png": "zebra-bytes",
	}
	for name, want := range contents {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(data) != want {
			t.Fatalf("%s: contents %q want %q", name, data, want)
		}
	}
}

func TestRenameSelfCollision(t *testing.T) {
	// holiday_2.png participates in the rename and lands on holiday_1.png
	// while holiday_1.png moves at the same time. The two-phase protocol must
	// handle it without a pre-flight conflict.
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"holiday_1.png": "first",
		"holiday_2.png": "second",
	})

	result, err := Rename(dir, "holiday")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("renamed count: %d", len(result.Files))
	}
	data, err := os.ReadFile(filepath.Join(dir, "holiday_1.png"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("holiday_1.png contents: %q", data)
	}
}

func TestRenameConflictAbortsWithZeroChanges(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.png": "a",
		"b.png": "b",
	})
	// Planned names always end in .png, so any regular file occupying one
	// would itself be a candidate. A non-participating occupant is therefore
	// a directory carrying the planned name.
	if err := os.Mkdir(filepath.Join(dir, "trip_2.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	before := listNames(t, dir)

	_, err := Rename(dir, "trip")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	after := listNames(t, dir)
	if len(after) != len(before) {
		t.Fatalf("file count changed: %d -> %d", len(before), len(after))
	}
	for name := range before {
		if !after[name] {
			t.Fatalf("conflict abort mutated the folder: %s missing", name)
		}
	}
}

func TestRenameEmptyFolder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"only.txt": "x"})
	if _, err := Rename(dir, "base"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error for folder without PNGs, got %v", err)
	}
}

func TestRenameMissingFolder(t *testing.T) {
	if _, err := Rename(filepath.Join(t.TempDir(), "nope"), "base"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRenamePathIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.png")
	writeFiles(t, dir, map[string]string{"file.png": "x"})
	if _, err := Rename(file, "base"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}
