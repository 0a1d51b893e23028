package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farconnect/attestation-service/internal/api/http/handlers"
	"github.com/farconnect/attestation-service/internal/auth"
	"github.com/farconnect/attestation-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Zupass         *handlers.ZupassHandler
	Realtime       *handlers.RealtimeHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
	VerifyLimiter  *ratelimit.Limiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	zupassGroup := api.Group("/zupass")
	zupassGroup.Post("/verify", ratelimit.Handler(cfg.VerifyLimiter), cfg.Zupass.Verify)
	zupassGroup.Get("/verify", cfg.Zupass.Status)
	zupassGroup.Post("/store-verified", ratelimit.Handler(cfg.VerifyLimiter), cfg.Zupass.StoreVerified)

	api.Post("/realtime/token", cfg.Realtime.Token)

	api.Post("/users", cfg.Users.Upsert)
	api.Get("/users/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
}
