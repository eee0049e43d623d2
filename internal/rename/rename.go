// Package rename implements the atomic bulk PNG rename routine. Renaming is
// two-phase: every candidate file first moves to a unique temporary name, then
// to its final name, so members of the same rename set can never collide with
// each other.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/seanmmorais/mse-sora/internal/domain"
)

// Extension is the fixed extension the engine operates on.
const Extension = ".png"

var (
	reservedChars  = `<>:"/\|?*`
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Mapping records one original→final rename.
type Mapping struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// Result describes a completed bulk rename.
type Result struct {
	FolderPath string
	BaseName   string
	Files      []Mapping
}

// ValidateBaseName normalizes a requested base name. It trims surrounding
// whitespace, rejects empty names, reserved filename characters, and trailing
// space or period, and collapses internal whitespace runs to single spaces.
func ValidateBaseName(baseName string) (string, error) {
	cleaned := strings.TrimSpace(baseName)
	if cleaned == "" {
		return "", fmt.Errorf("base name is required: %w", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(cleaned, reservedChars) {
		return "", fmt.Errorf("base name contains invalid filename characters (%s): %w", reservedChars, domain.ErrInvalidInput)
	}
	if strings.HasSuffix(cleaned, " ") || strings.HasSuffix(cleaned, ".") {
		return "", fmt.Errorf("base name cannot end with a space or period: %w", domain.ErrInvalidInput)
	}
	return whitespaceRuns.ReplaceAllString(cleaned, " "), nil
}

// Rename renames every PNG file directly inside dir to <base>_<k>.png with k
// assigned in case-insensitive name order. A pre-flight pass aborts with zero
// filesystem changes when a planned name collides with a file outside the
// rename set. A failure during the second phase is fatal and does not roll
// back: files already moved stay moved.
func Rename(dir, baseName string) (*Result, error) {
	base, err := ValidateBaseName(baseName)
	if err != nil {
		return nil, err
	}

	dir = strings.TrimSpace(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("folder does not exist: %w", domain.ErrNotFound)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("provided path is not a folder: %w", domain.ErrInvalidInput)
	}

	candidates, err := listCandidates(dir)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no %s files found in the selected folder: %w", Extension, domain.ErrNotFound)
	}

	planned := make([]string, len(candidates))
	for i := range candidates {
		planned[i] = fmt.Sprintf("%s_%d%s", base, i+1, Extension)
	}

	// Pre-flight: a planned name may only exist if it belongs to the rename
	// set itself (handled by the two phases below).
	participating := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		participating[name] = true
	}
	for _, name := range planned {
		if participating[name] {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return nil, fmt.Errorf("cannot rename because target file already exists: %s: %w", name, domain.ErrConflict)
		}
	}

	// Phase 1: move everything out of the way under unique temporary names.
	temps := make([]string, len(candidates))
	for i, name := range candidates {
		temp := fmt.Sprintf(".__tmp_rename_%s%s", strings.ReplaceAll(uuid.NewString(), "-", ""), Extension)
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, temp)); err != nil {
			return nil, fmt.Errorf("rename to temporary name: %w", err)
		}
		temps[i] = temp
	}

	// Phase 2: settle temporaries onto their final names in index order.
	result := &Result{FolderPath: dir, BaseName: base}
	for i, temp := range temps {
		if err := os.Rename(filepath.Join(dir, temp), filepath.Join(dir, planned[i])); err != nil {
			return nil, fmt.Errorf("rename failed: %w", err)
		}
		result.Files = append(result.Files, Mapping{OldName: candidates[i], NewName: planned[i]})
	}
	return result, nil
}

// listCandidates returns the names of the regular PNG files directly in dir,
// sorted case-insensitively.
func listCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}
