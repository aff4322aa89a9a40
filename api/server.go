/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: One zap line per request (method, path, status, duration)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the frontend
  5. Identify:      Caller identity from X-User-* headers (under /api only)

ROUTE GROUPS:
  /api/users/*          Participants and staff
  /api/holidays/*       Canton holidays (computed and stored)
  /api/attendance/*     Actual half-day attendance
  /api/rma/*            Monthly declarations and their workflow
  /api/reconciliation   Planned vs actual per user
  /api/reports/*        Yearly and attendance reports
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness check

SECURITY NOTE:
  Authentication happens upstream. This service trusts the identity
  headers and only enforces role and center rules.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Identify and RequestLogger
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *zap.Logger, allowedOrigins []string) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", HeaderUserID, HeaderUserRole, HeaderUserCenter},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(Identify)

		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeactivateUser)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Get("/compute", h.ComputeHolidays)
			r.Post("/seed", h.SeedHolidays)
			r.Put("/{id}", h.UpdateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.ListAttendance)
			r.Post("/", h.RecordAttendance)
			r.Post("/batch", h.RecordAttendanceBatch)
			r.Delete("/{id}", h.DeleteAttendance)
		})

		// Declaration routes
		r.Route("/rma", func(r chi.Router) {
			r.Get("/", h.ListSubmissions)
			r.Post("/", h.CreateSubmission)
			r.Get("/{id}", h.GetSubmission)
			r.Put("/{id}", h.UpdateSubmission)
			r.Delete("/{id}", h.DeleteSubmission)
			r.Post("/{id}/submit", h.SubmitSubmission)
			r.Post("/{id}/review", h.ReviewSubmission)
		})

		// Reconciliation routes
		r.Get("/reconciliation", h.GetReconciliation)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/attendance", h.GetAttendanceReport)
			r.Get("/{year}", h.GetYearReport)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
