/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the web client

ROUTE GROUPS:
  /api/jobs/*           Jobs and bonus templates
  /api/shifts/*         Shift records
  /api/tracker/*        Live tracking
  /api/achievements/*   Achievements
  /api/summary, goals   Reports
  /api/templates/*      Shift presets
  /api/export, import   Backup and CSV

SECURITY NOTE:
  No authentication middleware. The server is meant for a single user on a
  trusted network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins list allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/", h.CreateJob)
			r.Get("/{id}", h.GetJob)
			r.Delete("/{id}", h.DeleteJob)
			r.Post("/{id}/bonuses", h.CreateBonus)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Get("/{id}", h.GetShift)
			r.Patch("/{id}", h.UpdateShift)
			r.Delete("/{id}", h.DeleteShift)
		})

		r.Route("/tracker", func(r chi.Router) {
			r.Get("/", h.GetTracker)
			r.Post("/start", h.StartTracking)
			r.Post("/end", h.EndTracking)
			r.Get("/live", h.LiveTracker)
		})

		r.Route("/achievements", func(r chi.Router) {
			r.Get("/", h.ListAchievements)
			r.Post("/evaluate", h.EvaluateAchievements)
			r.Get("/recent", h.RecentAchievements)
			r.Post("/recent/ack", h.AcknowledgeAchievements)
		})

		r.Get("/summary", h.GetSummary)
		r.Get("/goals", h.GetGoals)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/apply", h.ApplyTemplate)
		})

		r.Get("/export/backup", h.ExportBackup)
		r.Get("/export/shifts.csv", h.ExportShiftsCSV)
		r.Post("/import/backup", h.ImportBackup)
	})

	return r
}
