package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/seanmmorais/mse-sora/internal/http/handlers"
	"github.com/seanmmorais/mse-sora/internal/infra"
	"github.com/seanmmorais/mse-sora/internal/middleware"
)

func NewRouter(app *handlers.App, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", app.CreateBatch)
			r.Get("/{batchID}", app.GetBatch)
			r.Get("/{batchID}/download-all", app.DownloadAllOutputs)
			r.Get("/{batchID}/jobs/{jobID}/download", app.DownloadJobOutput)
		})
		r.Post("/rename-pngs", app.RenamePNGs)
	})

	return r
}
