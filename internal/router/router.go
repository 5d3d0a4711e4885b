package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/caselane/docforge/internal/auth"
	"github.com/caselane/docforge/internal/handler"
	mw "github.com/caselane/docforge/internal/middleware"
)

func New(
	jwtSecret string,
	maxRequestBytes int64,
	authH *handler.AuthHandler,
	jobH *handler.JobHandler,
	intakeH *handler.IntakeHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)
	r.Use(mw.MaxBytes(maxRequestBytes))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		if jwtSecret != "" {
			r.Post("/auth/token", authH.Token)
		}

		// Job API; protected when a JWT secret is configured.
		r.Group(func(r chi.Router) {
			if jwtSecret != "" {
				r.Use(auth.Middleware(jwtSecret))
			}

			// Intake payload store
			r.Post("/intake", intakeH.Store)
			r.Get("/intake/{payloadRef}", intakeH.Get)

			// Jobs
			r.Get("/jobs", jobH.List)
			r.Post("/jobs", jobH.Submit)
			r.Get("/jobs/{jobId}", jobH.Get)
			r.Get("/jobs/{jobId}/download", jobH.Download)
			r.Post("/jobs/{jobId}/retry", jobH.Retry)
		})
	})

	return r
}
