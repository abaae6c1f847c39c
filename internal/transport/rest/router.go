package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/leave-management/internal/activity"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/metrics"
	"github.com/frahmantamala/leave-management/internal/notification"
	"github.com/frahmantamala/leave-management/internal/report"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
	"github.com/frahmantamala/leave-management/internal/user"
)

const APIPrefix = "/api/v1"

type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Leave        *leave.Handler
	Notification *notification.Handler
	Activity     *activity.Handler
	Report       *report.Handler
}

type Options struct {
	AllowedOrigins []string
	OpenAPISpec    string
	Validator      *middleware.RequestValidator
	Metrics        *metrics.Service
	MetricsPath    string
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	rbac := auth.NewRBACAuthorization(logger)

	// Apply global middleware
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware(logger))

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, opts.Metrics.Handler())
	}

	// Serve OpenAPI spec at root (outside API prefix)
	if opts.OpenAPISpec != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPISpec)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route(APIPrefix, func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator.Middleware)
		}

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", h.User.GetCurrentUser)
				ur.Get("/{id}", h.User.GetUser)
				ur.Get("/{id}/balance", h.Leave.GetBalance)

				ur.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManager())
					mr.Get("/", h.User.ListUsers)
					mr.Post("/", h.User.CreateUser)
					mr.Patch("/{id}", h.User.UpdateUser)
					mr.Post("/{id}/deactivate", h.User.DeactivateUser)
				})
			})

			pr.Route("/leaves", func(lr chi.Router) {
				lr.Post("/", h.Leave.SubmitLeave)
				lr.Get("/", h.Leave.ListLeaves)
				lr.Get("/{id}", h.Leave.GetLeave)
				lr.Get("/{id}/history", h.Leave.GetLeaveHistory)

				lr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManager())
					mr.Patch("/{id}/approve", h.Leave.ApproveLeave)
					mr.Patch("/{id}/reject", h.Leave.RejectLeave)
					mr.Patch("/{id}/cancel", h.Leave.CancelLeave)
				})
			})

			pr.Get("/notifications", h.Notification.ListNotifications)
			pr.Patch("/notifications/{id}/read", h.Notification.MarkRead)

			pr.Get("/activity", h.Activity.ListActivity)
			pr.Get("/reports/usage", h.Report.GetUsage)
		})
	})
}
