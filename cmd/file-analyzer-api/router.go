// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/file-analyzer/cmd/file-analyzer-api/handlers"
	"github.com/spherical-ai/spherical/libs/file-analyzer/cmd/file-analyzer-api/middleware"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/config"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, processor handlers.BatchProcessor, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	analysisHandler := handlers.NewAnalysisHandler(logger, processor, handlers.UploadLimits{
		MaxBytes:        cfg.Server.MaxUploadBytes,
		MultipartMemory: cfg.Server.MultipartMemory,
	})

	r.Get("/", handlers.Root)
	r.Get("/health", handlers.Health(cfg.Observability.ServiceName))

	// The browser client posts to the trailing-slash form.
	r.Post("/analyze/", analysisHandler.Analyze)
	r.Post("/analyze", analysisHandler.Analyze)

	return r
}
