package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Issues         *handlers.IssuesHandler
	Moderation     *handlers.ModerationHandler
	AuthMiddleware *auth.AuthMiddleware
	IssueRateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Accounts.Me)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("", cfg.IssueRateLimit, cfg.Issues.Create)
	issues.Get("", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Post("/:id/like", cfg.Issues.ToggleLike)
	issues.Post("/:id/claim", auth.RequireRole(domain.RoleProvider), cfg.Issues.Claim)
	issues.Post("/:id/resolve", auth.RequireRole(domain.RoleProvider), cfg.Issues.Resolve)
	issues.Post("/:id/reject", auth.RequireModerator(), cfg.Issues.Reject)
	issues.Post("/:id/photos", cfg.Issues.AddPhoto)
	issues.Get("/:id/photos", cfg.Issues.Photos)
	issues.Post("/:id/flags", cfg.Moderation.Flag)

	moderation := app.Group("/moderation", cfg.AuthMiddleware.Handle, auth.RequireModerator())
	moderation.Get("/flags", cfg.Moderation.ListFlagged)
	moderation.Post("/flags/:id/review", cfg.Moderation.Review)
}
