package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/automation"
	"github.com/carsch18/AI-OPS/internal/config"
	"github.com/carsch18/AI-OPS/internal/database"
	"github.com/carsch18/AI-OPS/internal/handlers"
	"github.com/carsch18/AI-OPS/internal/hub"
	"github.com/carsch18/AI-OPS/internal/lifecycle"
	"github.com/carsch18/AI-OPS/internal/llm"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/carsch18/AI-OPS/internal/monitoring"
	"github.com/carsch18/AI-OPS/internal/routes"
	"github.com/carsch18/AI-OPS/internal/store"
	"github.com/carsch18/AI-OPS/internal/tools"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting AIOps Brain", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	// ─── Database (degraded mode if unavailable) ─────────────────────────
	var db *gorm.DB
	if connected, err := database.Connect(cfg); err != nil {
		slog.Warn("Database unavailable, approval workflow runs in memory-only mode", "error", err)
	} else if err := database.Migrate(connected); err != nil {
		slog.Warn("Database migration failed, approval workflow runs in memory-only mode", "error", err)
	} else {
		db = connected
	}

	// ─── Stores ─────────────────────────────────────────────────────────
	var durableActions store.ActionStore
	var durableLedger audit.Ledger
	if db != nil {
		durableActions = store.NewGormStore(db)
		durableLedger = audit.NewGormLedger(db)
	}
	actions := store.NewFailover(durableActions, store.NewMemoryStore())
	ledger := audit.NewFailoverLedger(durableLedger, audit.NewMemoryLedger())

	// ─── Collaborator clients ───────────────────────────────────────────
	monitor := monitoring.NewClient(cfg.NetdataURL)
	llmClient := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel)

	// ─── Core engine ────────────────────────────────────────────────────
	notifier := hub.New(func() []models.Action {
		pending, _ := actions.ListByStatus(models.StatusPending)
		return pending
	})
	bridge := automation.NewBridge(cfg.AutomationURL, cfg.CallbackURL, cfg.PlaybookDir, ledger)
	registry := tools.NewRegistry(monitor, actions, ledger, notifier)
	controller := lifecycle.NewController(actions, ledger, notifier, bridge)

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg)
	chatHandler := handlers.NewChatHandler(llmClient, registry)
	actionHandler := handlers.NewActionHandler(actions, controller)
	auditHandler := handlers.NewAuditHandler(ledger)
	metricsHandler := handlers.NewMetricsHandler(monitor)
	systemHandler := handlers.NewSystemHandler(db, monitor, llmClient)
	wsHandler := handlers.NewWSHandler(notifier)

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "aiops-brain v" + handlers.Version,
		ServerHeader: "aiops-brain",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, chatHandler, actionHandler, auditHandler,
		metricsHandler, systemHandler, wsHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down AIOps Brain...")

		notifier.Shutdown()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("AIOps Brain listening", "addr", listenAddr, "netdata", cfg.NetdataURL)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
