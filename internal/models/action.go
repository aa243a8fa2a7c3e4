package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionType identifies the kind of remediation being proposed.
type ActionType string

const (
	ActionRestartService   ActionType = "restart_service"
	ActionKillProcess      ActionType = "kill_process"
	ActionClearCache       ActionType = "clear_cache"
	ActionScaleUp          ActionType = "scale_up"
	ActionScaleDown        ActionType = "scale_down"
	ActionRestartContainer ActionType = "restart_container"
	ActionRunPlaybook      ActionType = "run_playbook"
	ActionCustom           ActionType = "custom"
)

// Severity is the operator-facing risk level of an action.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ActionStatus is the lifecycle state of a proposed action.
//
// PENDING is the only initial state. An approve decision moves the action to
// EXECUTING; reject/modify decisions are recorded verbatim as REJECT/MODIFY.
// COMPLETED and FAILED are terminal and reachable only through the automation
// callback after EXECUTING.
type ActionStatus string

const (
	StatusPending   ActionStatus = "PENDING"
	StatusExecuting ActionStatus = "EXECUTING"
	StatusReject    ActionStatus = "REJECT"
	StatusModify    ActionStatus = "MODIFY"
	StatusCompleted ActionStatus = "COMPLETED"
	StatusFailed    ActionStatus = "FAILED"
)

// Action is a proposed remediation awaiting (or past) a human decision.
// After creation only Status, ResolvedAt, ResolvedBy and Resolution change.
type Action struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	ActionType   ActionType   `gorm:"not null" json:"action_type"`
	Target       string       `gorm:"not null" json:"target"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Impact       string       `json:"impact"`
	RollbackPlan string       `gorm:"type:text" json:"rollback_plan"`
	Severity     Severity     `gorm:"default:'MEDIUM'" json:"severity"`
	Status       ActionStatus `gorm:"default:'PENDING';index" json:"status"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy   string       `json:"resolved_by,omitempty"`
	Resolution   string       `json:"resolution,omitempty"`
}

// ValidActionType reports whether t is a member of the action type enum.
func ValidActionType(t ActionType) bool {
	switch t {
	case ActionRestartService, ActionKillProcess, ActionClearCache,
		ActionScaleUp, ActionScaleDown, ActionRestartContainer,
		ActionRunPlaybook, ActionCustom:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a member of the severity enum.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Terminal reports whether s is a state no further transition may leave.
func (s ActionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusReject, StatusModify:
		return true
	}
	return false
}
