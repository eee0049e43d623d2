package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seanmmorais/mse-sora/internal/batch"
	"github.com/seanmmorais/mse-sora/internal/domain"
	"github.com/seanmmorais/mse-sora/internal/infra"
)

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Batches      *batch.Service
	DefaultModel string
	Logger       infra.Logger
}

func NewApp(batches *batch.Service, defaultModel string, logger infra.Logger) *App {
	return &App{Batches: batches, DefaultModel: defaultModel, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{"error": kind, "detail": message})
}

// domainError maps a service error onto an HTTP response.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrConflict):
		a.error(w, http.StatusBadRequest, "conflict", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotConfigured):
		a.error(w, http.StatusInternalServerError, "not_configured", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
