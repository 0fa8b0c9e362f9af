package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/clipflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/clipflow-api/internal/api/middleware"
	"github.com/phrazzld/clipflow-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	operationHandler := api.NewOperationHandler(app.scheduler, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Read endpoints are open so pollers need no credentials.
		r.Get("/operations", operationHandler.ListOperations)
		r.Get("/operations/{id}", operationHandler.GetOperationStatus)

		// Mutating endpoints require a bearer token when a secret is
		// configured; with no secret the whole API is open.
		r.Group(func(r chi.Router) {
			if app.config.Auth.TokenSecret != "" {
				authMiddleware := apiMiddleware.NewAuthMiddleware(app.config.Auth.TokenSecret, app.logger)
				r.Use(authMiddleware.Authenticate)
			}
			r.Post("/operations", operationHandler.EnqueueOperation)
			r.Delete("/operations/{id}", operationHandler.CancelOperation)
		})
	})

	// Liveness: the process is up.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Readiness: the render session behind the queue is initialized.
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !app.scheduler.Ready() {
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]bool{"ready": false})
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"ready": true})
	})

	return r
}
