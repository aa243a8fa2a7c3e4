// Package lifecycle owns every Action state transition. Nothing else in the
// system moves an action between states.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/automation"
	"github.com/carsch18/AI-OPS/internal/hub"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/carsch18/AI-OPS/internal/store"
	"github.com/google/uuid"
)

// ErrInvalidDecision rejects decision values outside {approve, reject, modify}.
var ErrInvalidDecision = errors.New("decision must be one of approve, reject, modify")

// ErrDecisionConflict means another decision already resolved the action.
var ErrDecisionConflict = errors.New("action was already resolved by another decision")

// DecisionRequest is the operator decision surface payload.
type DecisionRequest struct {
	ActionID       string                 `json:"action_id"`
	Decision       string                 `json:"decision"` // approve, reject, modify
	ModifiedAction map[string]interface{} `json:"modified_action,omitempty"`
	ApprovedBy     string                 `json:"approved_by"`
}

// DecisionResult reports the recorded decision plus, on approve, the
// bridge's immediate delivery outcome.
type DecisionResult struct {
	Status    string             `json:"status"`
	ActionID  string             `json:"action_id"`
	Message   string             `json:"message"`
	Execution *automation.Result `json:"execution,omitempty"`
}

// Callback is what the automation executor posts back after running an
// approved action. It may arrive late, twice, or never.
type Callback struct {
	ActionID string                 `json:"action_id"`
	Status   string                 `json:"status"`
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Controller drives the action state machine: PENDING to EXECUTING on
// approve (REJECT/MODIFY otherwise), then COMPLETED or FAILED via callback.
type Controller struct {
	actions store.ActionStore
	ledger  audit.Ledger
	hub     *hub.Hub
	bridge  *automation.Bridge
}

func NewController(actions store.ActionStore, ledger audit.Ledger, h *hub.Hub, bridge *automation.Bridge) *Controller {
	return &Controller{
		actions: actions,
		ledger:  ledger,
		hub:     h,
		bridge:  bridge,
	}
}

// Decide records a human decision and, on approve, hands the action to the
// automation bridge. A decision on an id no backend knows is a soft no-op
// with a best-effort response, never a hard failure; a decision that loses a
// race against a concurrent one gets ErrDecisionConflict.
func (c *Controller) Decide(req DecisionRequest) (*DecisionResult, error) {
	decision := strings.ToLower(req.Decision)
	switch decision {
	case "approve", "reject", "modify":
	default:
		return nil, ErrInvalidDecision
	}

	id, err := uuid.Parse(req.ActionID)
	if err != nil {
		return nil, fmt.Errorf("invalid action id: %w", err)
	}

	approvedBy := req.ApprovedBy
	if approvedBy == "" {
		approvedBy = "admin"
	}

	// Best-effort read of the full record. The decision proceeds without it.
	action, getErr := c.actions.Get(id)

	newStatus := models.ActionStatus(strings.ToUpper(decision))
	if decision == "approve" {
		newStatus = models.StatusExecuting
	}

	err = c.actions.Resolve(id, newStatus, approvedBy, decision, time.Now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, store.ErrConflict):
		return nil, ErrDecisionConflict
	case errors.Is(err, store.ErrNotFound):
		slog.Warn("decision on unknown action id", "action_id", id, "decision", decision)
	default:
		return nil, fmt.Errorf("record decision: %w", err)
	}

	metadata := map[string]interface{}{}
	if req.ModifiedAction != nil {
		metadata["modified_action"] = req.ModifiedAction
	}
	c.ledger.Append(audit.Event("ACTION_"+strings.ToUpper(decision), approvedBy,
		fmt.Sprintf("Action %s %s", req.ActionID[:8], pastTense(decision)), metadata, &id))

	c.hub.ActionResolved(req.ActionID, decision)

	if decision != "approve" {
		return &DecisionResult{
			Status:   pastTense(decision),
			ActionID: req.ActionID,
			Message:  fmt.Sprintf("Action %s by human operator", pastTense(decision)),
		}, nil
	}

	if action == nil {
		slog.Warn("approved action has no retrievable record, skipping automation", "action_id", id, "error", getErr)
		return &DecisionResult{
			Status:   "approved",
			ActionID: req.ActionID,
			Message:  "Action approved (execution context unavailable, automation not triggered)",
		}, nil
	}

	execution := c.bridge.Trigger(action)
	return &DecisionResult{
		Status:    "approved",
		ActionID:  req.ActionID,
		Message:   "Action approved and sent to automation controller",
		Execution: execution,
	}, nil
}

// HandleCallback ingests an executor result. The executor does not promise
// exactly-once delivery, so duplicate and unknown-id callbacks are accepted
// idempotently. A callback for an action that is not EXECUTING (never
// approved, or already resolved by a human) is an integrity violation and is
// ignored: the recorded state stands.
func (c *Controller) HandleCallback(cb Callback) error {
	id, err := uuid.Parse(cb.ActionID)
	if err != nil {
		return fmt.Errorf("invalid action id: %w", err)
	}

	finalStatus := models.StatusCompleted
	if !cb.Success {
		finalStatus = models.StatusFailed
	}

	if err := c.actions.Finalize(id, finalStatus); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			slog.Warn("callback ignored, action is not executing", "action_id", id, "status", cb.Status)
			return nil
		case errors.Is(err, store.ErrNotFound):
			slog.Warn("callback for unknown action id", "action_id", id, "status", cb.Status)
		default:
			slog.Error("callback status update failed", "action_id", id, "error", err)
		}
	}

	c.ledger.Append(audit.Event("AUTOMATION_"+string(finalStatus), models.ActorAutomation,
		cb.Message, cb.Details, &id))

	c.hub.AutomationResult(cb.ActionID, cb.Status, cb.Success, cb.Message)
	return nil
}

func pastTense(decision string) string {
	switch decision {
	case "approve":
		return "approved"
	case "reject":
		return "rejected"
	case "modify":
		return "modified"
	}
	return decision
}
