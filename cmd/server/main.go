package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/seanmmorais/mse-sora/internal/batch"
	"github.com/seanmmorais/mse-sora/internal/http/handlers"
	"github.com/seanmmorais/mse-sora/internal/http/httpapi"
	"github.com/seanmmorais/mse-sora/internal/imagegen"
	"github.com/seanmmorais/mse-sora/internal/infra"
	"github.com/seanmmorais/mse-sora/internal/storage"
	"github.com/seanmmorais/mse-sora/internal/store"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	files, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare data directory")
	}

	client := imagegen.NewClient(imagegen.Options{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Timeout: cfg.ImageEditTimeout,
	})
	if !client.Configured() {
		logger.Warn().Msg("OPENAI_API_KEY is not set; batch submissions will be rejected")
	}

	registry := store.NewRegistry()
	executor := batch.NewEditExecutor(client, files)
	scheduler := batch.NewScheduler(registry, executor, logger)
	service := batch.NewService(registry, files, scheduler, client, logger)

	app := handlers.NewApp(service, cfg.ImageModel, logger)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("data_dir", cfg.DataDir).Msgf("listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
