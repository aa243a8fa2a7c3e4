package handlers

import (
	"time"

	"github.com/carsch18/AI-OPS/internal/llm"
	"github.com/carsch18/AI-OPS/internal/monitoring"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var startTime = time.Now()

// Version of the service.
var Version = "3.0.0"

type SystemHandler struct {
	db      *gorm.DB // nil in memory-only degraded mode
	monitor *monitoring.Client
	llm     *llm.Client
}

func NewSystemHandler(db *gorm.DB, monitor *monitoring.Client, llmClient *llm.Client) *SystemHandler {
	return &SystemHandler{db: db, monitor: monitor, llm: llmClient}
}

// Root is the service banner.
func (h *SystemHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "online",
		"service":  "AIOps Brain - Human-in-the-Loop",
		"version":  Version,
		"features": []string{"Investigation", "Remediation", "HITL Approval", "Audit Log"},
	})
}

// Health reports reachability of the collaborators. The service keeps
// running in degraded mode when any of them is down.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	netdataOK := h.monitor.Reachable()

	dbOK := false
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil {
			dbOK = sqlDB.Ping() == nil
		}
	}

	status := "healthy"
	if !netdataOK || !dbOK {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":             status,
		"netdata_connected":  netdataOK,
		"database_connected": dbOK,
		"llm_configured":     h.llm.Configured(),
		"version":            Version,
		"uptime":             time.Since(startTime).String(),
	})
}
