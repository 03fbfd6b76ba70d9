package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thesistrack/thesistrack-api/internal/config"
	"github.com/thesistrack/thesistrack-api/internal/handler"
	"github.com/thesistrack/thesistrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChapterHandler      *handler.ChapterHandler
	ReviewHandler       *handler.ReviewHandler
	ReportHandler       *handler.ReportHandler
	DashboardHandler    *handler.DashboardHandler
	NotificationHandler *handler.NotificationHandler
	AuditHandler        *handler.AuditHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ChapterHandler != nil {
		chapters := api.Group("/chapters", jwtMiddleware)
		deps.ChapterHandler.Register(chapters)

		if deps.ReviewHandler != nil {
			deps.ReviewHandler.RegisterChapterRoutes(chapters)
		}
	}

	if deps.ReviewHandler != nil {
		comments := api.Group("/comments", jwtMiddleware)
		deps.ReviewHandler.RegisterCommentRoutes(comments)
	}

	if deps.ReportHandler != nil {
		reports := api.Group("/reports", jwtMiddleware)
		deps.ReportHandler.Register(reports)
	}

	if deps.DashboardHandler != nil {
		dashboards := api.Group("/dashboards", jwtMiddleware)
		deps.DashboardHandler.Register(dashboards)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.AuditHandler != nil {
		audit := api.Group("/audit", jwtMiddleware)
		deps.AuditHandler.Register(audit)
	}
}
