/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the planner UI

ROUTE GROUPS:
  /api/plans/*          Saved plans
  /api/sessions/*       Editing sessions (undo/redo)
  /api/validate         Stateless checks
  /api/project
  /api/schedule
  /api/presets/*        Demo plans
  /metrics              Prometheus scrape endpoint
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
// allowedOrigins feeds the CORS middleware.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
			r.Delete("/{id}", h.DeletePlan)
			r.Post("/{id}/sessions", h.OpenPlanSession)
			r.Get("/{id}/events", h.ListPlanEvents)
		})

		// Session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.OpenSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.CloseSession)
				r.Get("/ledger", h.GetSessionLedger)
				r.Put("/configuration", h.PutConfiguration)
				r.Put("/returns/{day}", h.PutReturn)
				r.Delete("/returns/{day}", h.DeleteReturn)
				r.Put("/contributions/{day}", h.PutContribution)
				r.Delete("/contributions/{day}", h.DeleteContribution)
				r.Delete("/overrides", h.ClearOverrides)
				r.Post("/undo", h.Undo)
				r.Post("/redo", h.Redo)
				r.Post("/save", h.SaveSession)
			})
		})

		// Stateless routes
		r.Post("/validate", h.ValidatePlan)
		r.Post("/project", h.ProjectPlan)
		r.Post("/schedule", h.Schedule)

		// Preset routes
		r.Route("/presets", func(r chi.Router) {
			r.Get("/", h.ListPresets)
			r.Post("/load", h.LoadPreset)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Wheel Plan Projection Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Wheel Plan Projection Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/plans">/api/plans</a> - List saved plans</li>
<li><a href="/api/presets">/api/presets</a> - List demo presets</li>
<li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
</ul>
</body>
</html>`))
	})

	return r
}
