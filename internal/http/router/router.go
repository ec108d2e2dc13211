package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techvilo/crm-api/internal/auth"
	"github.com/techvilo/crm-api/internal/config"
	"github.com/techvilo/crm-api/internal/http/handler"
	"github.com/techvilo/crm-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	authHandler        *handler.AuthHandler
	clientHandler      *handler.ClientHandler
	leadHandler        *handler.LeadHandler
	projectHandler     *handler.ProjectHandler
	taskHandler        *handler.TaskHandler
	transactionHandler *handler.TransactionHandler
	interactionHandler *handler.InteractionHandler
	documentHandler    *handler.DocumentHandler
	kpiHandler         *handler.KPIHandler
	dashboardHandler   *handler.DashboardHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	clientHandler *handler.ClientHandler,
	leadHandler *handler.LeadHandler,
	projectHandler *handler.ProjectHandler,
	taskHandler *handler.TaskHandler,
	transactionHandler *handler.TransactionHandler,
	interactionHandler *handler.InteractionHandler,
	documentHandler *handler.DocumentHandler,
	kpiHandler *handler.KPIHandler,
	dashboardHandler *handler.DashboardHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		authHandler:        authHandler,
		clientHandler:      clientHandler,
		leadHandler:        leadHandler,
		projectHandler:     projectHandler,
		taskHandler:        taskHandler,
		transactionHandler: transactionHandler,
		interactionHandler: interactionHandler,
		documentHandler:    documentHandler,
		kpiHandler:         kpiHandler,
		dashboardHandler:   dashboardHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness probe
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := rt.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "service": "database"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireAuth)

			r.Get("/auth/me", rt.authHandler.Me)
			r.With(rt.authMiddleware.RequirePrivileged).Post("/auth/register", rt.authHandler.Register)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", rt.clientHandler.List)
				r.Post("/", rt.clientHandler.Create)
				r.Get("/{id}", rt.clientHandler.Get)
				r.Put("/{id}", rt.clientHandler.Update)
				r.Delete("/{id}", rt.clientHandler.Delete)
				r.Get("/{id}/metrics", rt.clientHandler.Metrics)
				r.Get("/{id}/projects", rt.clientHandler.Projects)
				r.Get("/{id}/interactions", rt.clientHandler.Interactions)
				r.Get("/{id}/documents", rt.clientHandler.Documents)
				r.Get("/{id}/invoice", rt.clientHandler.Invoice)
			})

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", rt.leadHandler.List)
				r.Post("/", rt.leadHandler.Create)
				r.Get("/{id}", rt.leadHandler.Get)
				r.Put("/{id}", rt.leadHandler.Update)
				r.Delete("/{id}", rt.leadHandler.Delete)
				r.Post("/{id}/convert", rt.leadHandler.Convert)
				r.Get("/{id}/interactions", rt.leadHandler.Interactions)
				r.Get("/{id}/documents", rt.leadHandler.Documents)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/{id}", rt.projectHandler.Get)
				r.Put("/{id}", rt.projectHandler.Update)
				r.Delete("/{id}", rt.projectHandler.Delete)
				r.Get("/{id}/tasks", rt.projectHandler.Tasks)
				r.Get("/{id}/documents", rt.projectHandler.Documents)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", rt.taskHandler.List)
				r.Post("/", rt.taskHandler.Create)
				r.Get("/{id}", rt.taskHandler.Get)
				r.Put("/{id}", rt.taskHandler.Update)
				r.Patch("/{id}/status", rt.taskHandler.SetStatus)
				r.Delete("/{id}", rt.taskHandler.Delete)
				r.Post("/{id}/checklist", rt.taskHandler.AddChecklistItem)
				r.Patch("/checklist/{itemId}", rt.taskHandler.SetChecklistItemDone)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", rt.transactionHandler.List)
				r.Post("/", rt.transactionHandler.Create)
				r.Get("/{id}", rt.transactionHandler.Get)
				r.Put("/{id}", rt.transactionHandler.Update)
				r.Delete("/{id}", rt.transactionHandler.Delete)
			})

			r.Route("/interactions", func(r chi.Router) {
				r.Get("/", rt.interactionHandler.Recent)
				r.Post("/", rt.interactionHandler.Create)
			})

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", rt.documentHandler.Upload)
				r.Get("/{id}", rt.documentHandler.Download)
				r.Delete("/{id}", rt.documentHandler.Delete)
			})

			r.Route("/kpi", func(r chi.Router) {
				r.Get("/scorecards/{staffId}", rt.kpiHandler.Scorecard)

				// Target management and the all-staff view are manager only
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequirePrivileged)
					r.Get("/scorecards", rt.kpiHandler.Scorecards)
					r.Post("/targets", rt.kpiHandler.CreateTarget)
					r.Put("/targets/{id}", rt.kpiHandler.UpdateTarget)
					r.Delete("/targets/{id}", rt.kpiHandler.DeleteTarget)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", rt.dashboardHandler.Metrics)
				r.Get("/boards/projects", rt.dashboardHandler.ProjectBoard)
				r.Get("/boards/tasks", rt.dashboardHandler.TaskBoard)
			})
		})
	})

	return r
}
