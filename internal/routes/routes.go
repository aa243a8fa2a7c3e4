package routes

import (
	"github.com/carsch18/AI-OPS/internal/config"
	"github.com/carsch18/AI-OPS/internal/handlers"
	"github.com/carsch18/AI-OPS/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	actionHandler *handlers.ActionHandler,
	auditHandler *handlers.AuditHandler,
	metricsHandler *handlers.MetricsHandler,
	systemHandler *handlers.SystemHandler,
	wsHandler *handlers.WSHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/", systemHandler.Root)
	app.Get("/api/health", systemHandler.Health)

	// Auth
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// Agent conversation
	app.Post("/chat", chatHandler.Chat)

	// Monitoring proxy for the dashboard
	app.Get("/api/metrics", metricsHandler.Metrics)
	app.Get("/api/charts", metricsHandler.Charts)
	app.Get("/api/chart/:chart", metricsHandler.Chart)
	app.Get("/api/alerts", metricsHandler.Alerts)
	app.Get("/api/info", metricsHandler.Info)

	// Pending actions and audit trail (read-only)
	app.Get("/pending-actions", actionHandler.ListPending)
	app.Get("/audit-log", auditHandler.ListEvents)

	// Automation executor callback, the inbound async interface
	app.Post("/automation/callback", actionHandler.AutomationCallback)

	// Observers (WebSocket)
	app.Use("/ws", wsHandler.UpgradeCheck())
	app.Get("/ws", wsHandler.HandleObserver())

	// ─── Operator decision surface (protected) ──────────────────────────
	protected := app.Group("/actions", middleware.JWTProtected(cfg.JWTSecret))
	protected.Post("/:id/approve", actionHandler.Decide)
}
