package handlers

import (
	"strconv"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	ledger audit.Ledger
}

func NewAuditHandler(ledger audit.Ledger) *AuditHandler {
	return &AuditHandler{ledger: ledger}
}

// ListEvents returns the most recent audit events, newest first.
func (h *AuditHandler) ListEvents(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := h.ledger.Recent(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to read audit log",
		})
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	return c.JSON(fiber.Map{"logs": events})
}
