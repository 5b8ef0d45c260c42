package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/core/service"
)

// Deps bundles everything the router needs.
type Deps struct {
	Fulfillment *service.Fulfillment
	Inventory   *service.Inventory
	Users       *service.Users
	Verifier    auth.Verifier
	Store       Pinger
	Logger      *zap.Logger
}

// NewRouter assembles the HTTP API.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	orders := NewOrdersHandler(deps.Fulfillment)
	inventory := NewInventoryHandler(deps.Inventory)
	users := NewUsersHandler(deps.Users)
	health := NewHealthHandler(deps.Store)

	authenticated := auth.Middleware(deps.Verifier, writeUnauthorized)
	warehouseOrAdmin := auth.RequireRole(writeForbidden, domain.RoleWarehouseManager, domain.RoleAdmin)
	salespersonOnly := auth.RequireRole(writeForbidden, domain.RoleSalesperson)
	adminOnly := auth.RequireRole(writeForbidden, domain.RoleAdmin)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", health.Check)
	r.Post("/auth/login", users.Login)
	r.Post("/auth/register", users.Register)

	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/inventory", inventory.List)
		r.With(warehouseOrAdmin).Post("/inventory", inventory.Create)
		r.With(warehouseOrAdmin).Put("/inventory/{itemID}", inventory.Update)

		r.With(salespersonOnly).Post("/orders", orders.Create)
		r.Get("/orders/{orderID}", orders.Get)
		r.With(warehouseOrAdmin).Put("/orders/{orderID}/status", orders.UpdateStatus)

		r.With(adminOnly).Get("/users", users.List)
		r.With(adminOnly).Post("/users", users.Invite)
		r.With(adminOnly).Delete("/users/{userID}", users.Delete)
	})

	return r
}

// requestLogger emits one structured log line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
