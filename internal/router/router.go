package router

import (
	"net/http"

	"zerowaste/internal/handler"
	"zerowaste/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	donationHandler *handler.DonationHandler,
	dashboardHandler *handler.DashboardHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS, then APIKeyAuth and Actor on /api
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(apiKey, logger))
		r.Use(middleware.Actor(logger))

		r.Route("/donations", func(r chi.Router) {
			r.Get("/", donationHandler.List)
			r.Post("/", donationHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", donationHandler.Get)
				r.Patch("/", donationHandler.Edit)
				r.Delete("/", donationHandler.Delete)
				r.Post("/accept", donationHandler.Accept)
				r.Post("/cancel", donationHandler.Cancel)
				r.Post("/complete", donationHandler.Complete)
			})
		})

		r.Get("/dashboard", dashboardHandler.Get)
	})

	return r
}
