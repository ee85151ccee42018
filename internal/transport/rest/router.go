package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/admin"
	"github.com/helpdeskhq/helpdesk-portal/internal/auth"
	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
	"github.com/helpdeskhq/helpdesk-portal/internal/news"
	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
	"github.com/helpdeskhq/helpdesk-portal/internal/realtime"
	"github.com/helpdeskhq/helpdesk-portal/internal/request"
	"github.com/helpdeskhq/helpdesk-portal/internal/software"
	"github.com/helpdeskhq/helpdesk-portal/internal/transport/middleware"
	"github.com/helpdeskhq/helpdesk-portal/internal/transport/swagger"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	Guard        *auth.Guard
	User         *user.Handler
	Equipment    *equipment.Handler
	Software     *software.Handler
	News         *news.Handler
	Request      *request.Handler
	Notification *notification.Handler
	Admin        *admin.Handler
	Realtime     *realtime.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, cfg *internal.Config, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec and swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Uploaded attachments.
	publicPath := strings.TrimSuffix(cfg.Uploads.PublicPath, "/")
	if publicPath != "" {
		fs := http.StripPrefix(publicPath+"/", http.FileServer(http.Dir(cfg.Uploads.Dir)))
		router.Get(publicPath+"/*", fs.ServeHTTP)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Websocket endpoints authenticate at upgrade time, so they sit
		// outside the token middleware.
		r.Get("/ws/notifications", h.Realtime.Notifications)
		r.Get("/admin/logs", h.Realtime.Logs)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/auth/me", h.Auth.Me)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.User.List)
				ur.Get("/me", h.User.Me)
				ur.Patch("/me", h.User.UpdateMe)

				ur.Group(func(mr chi.Router) {
					mr.Use(h.Guard.Require(auth.OpManageUsers))
					mr.Post("/", h.User.Register)
					mr.Get("/{id}", h.User.Get)
					mr.Patch("/{id}", h.User.Update)
					mr.Delete("/{id}", h.User.Delete)
				})
			})

			pr.Route("/requests", func(rr chi.Router) {
				rr.Post("/", h.Request.Create)
				rr.Get("/my", h.Request.My)
				rr.Get("/{id}", h.Request.Get)
				rr.Patch("/{id}", h.Request.Update)
				rr.Post("/{id}/comments", h.Request.AddComment)

				rr.Group(func(mr chi.Router) {
					mr.Use(h.Guard.Require(auth.OpManageRequests))
					mr.Get("/", h.Request.List)
					mr.Delete("/{id}", h.Request.Delete)
				})
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Get("/", h.Notification.List)
				nr.Get("/unread-count", h.Notification.UnreadCount)
				nr.Post("/{id}/read", h.Notification.MarkRead)

				nr.Group(func(mr chi.Router) {
					mr.Use(h.Guard.Require(auth.OpManageRequests))
					mr.Post("/", h.Notification.Create)
				})
			})

			pr.Route("/equipment", func(er chi.Router) {
				er.Get("/", h.Equipment.List)
				er.Get("/{id}", h.Equipment.Get)

				er.Group(func(mr chi.Router) {
					mr.Use(h.Guard.Require(auth.OpManageEquipment))
					mr.Post("/", h.Equipment.Create)
					mr.Patch("/{id}", h.Equipment.Update)
					mr.Delete("/{id}", h.Equipment.Delete)
				})
			})

			pr.Route("/software", func(sr chi.Router) {
				sr.Get("/", h.Software.List)
				sr.Get("/{id}", h.Software.Get)

				sr.Group(func(mr chi.Router) {
					mr.Use(h.Guard.Require(auth.OpManageSoftware))
					mr.Get("/expiring", h.Software.Expiring)
					mr.Post("/", h.Software.Create)
					mr.Patch("/{id}", h.Software.Update)
					mr.Delete("/{id}", h.Software.Delete)
				})
			})

			pr.Route("/news", func(nr chi.Router) {
				nr.Get("/", h.News.List)
				nr.Get("/{id}", h.News.Get)

				nr.Group(func(mr chi.Router) {
					mr.Use(h.Guard.Require(auth.OpManageNews))
					mr.Post("/", h.News.Create)
					mr.Patch("/{id}", h.News.Update)
					mr.Delete("/{id}", h.News.Delete)
				})
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.Group(func(rr chi.Router) {
					rr.Use(h.Guard.Require(auth.OpViewReports))
					rr.Get("/stats", h.Admin.Stats)
					rr.Get("/stats-requests", h.Admin.RequestStats)
					rr.Get("/stats/daily", h.Admin.DailyStats)
					rr.Get("/reports/requests-by-admin", h.Admin.RequestsByAdmin)
					rr.Get("/reports/requests-by-admin/csv", h.Admin.RequestsByAdminCSV)
					rr.Get("/reports/requests-by-equipment", h.Admin.RequestsByEquipment)
					rr.Get("/reports/requests-by-equipment/csv", h.Admin.RequestsByEquipmentCSV)
				})

				ar.Group(func(lr chi.Router) {
					lr.Use(h.Guard.Require(auth.OpViewAuditLog))
					lr.Get("/audit-log", h.Admin.AuditLogs)
				})
			})
		})
	})
}
