package handlers

import (
	"net/http"

	"github.com/seanmmorais/mse-sora/internal/rename"
)

// RenamePNGs bulk-renames the PNG files in a folder to <base>_<k>.png.
func (a *App) RenamePNGs(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid form payload")
		return
	}
	result, err := rename.Rename(r.FormValue("folder_path"), r.FormValue("base_name"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"folder_path":   result.FolderPath,
		"base_name":     result.BaseName,
		"renamed_count": len(result.Files),
		"files":         result.Files,
	})
}
