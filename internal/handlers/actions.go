package handlers

import (
	"errors"

	"github.com/carsch18/AI-OPS/internal/lifecycle"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/carsch18/AI-OPS/internal/store"
	"github.com/gofiber/fiber/v2"
)

// ActionHandler exposes the pending-action list, the operator decision
// surface and the automation callback endpoint.
type ActionHandler struct {
	actions    store.ActionStore
	controller *lifecycle.Controller
}

func NewActionHandler(actions store.ActionStore, controller *lifecycle.Controller) *ActionHandler {
	return &ActionHandler{actions: actions, controller: controller}
}

// ListPending returns all actions awaiting approval.
func (h *ActionHandler) ListPending(c *fiber.Ctx) error {
	actions, err := h.actions.ListByStatus(models.StatusPending)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list pending actions",
		})
	}
	if actions == nil {
		actions = []models.Action{}
	}
	return c.JSON(fiber.Map{"actions": actions})
}

// Decide records an approve/reject/modify decision for one action.
func (h *ActionHandler) Decide(c *fiber.Ctx) error {
	var req lifecycle.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	req.ActionID = c.Params("id")

	// The authenticated operator is the decision actor unless the request
	// names one explicitly.
	if req.ApprovedBy == "" {
		if username, ok := c.Locals("username").(string); ok {
			req.ApprovedBy = username
		}
	}

	result, err := h.controller.Decide(req)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrInvalidDecision):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		case errors.Is(err, lifecycle.ErrDecisionConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		}
	}
	return c.JSON(result)
}

// AutomationCallback receives execution results from the automation
// executor. This is the system's only inbound asynchronous interface.
func (h *ActionHandler) AutomationCallback(c *fiber.Ctx) error {
	var cb lifecycle.Callback
	if err := c.BodyParser(&cb); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid callback body",
		})
	}

	if err := h.controller.HandleCallback(cb); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"received":  true,
		"action_id": cb.ActionID,
	})
}
