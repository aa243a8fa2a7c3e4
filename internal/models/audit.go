package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit event types emitted by the lifecycle engine.
const (
	EventActionProposed      = "ACTION_PROPOSED"
	EventAutomationTriggered = "AUTOMATION_TRIGGERED"
	EventAutomationFailed    = "AUTOMATION_FAILED"
	EventLocalExecution      = "LOCAL_EXECUTION"
)

// Audit actors. Human operators appear under their own identifier.
const (
	ActorAI         = "AI"
	ActorSystem     = "system"
	ActorAutomation = "ansible"
)

// AuditEvent is one immutable fact in the lifecycle history. Rows are only
// ever appended; Sequence ordering is the canonical history for an action.
type AuditEvent struct {
	Sequence  uint64         `gorm:"primaryKey;autoIncrement" json:"sequence"`
	Timestamp time.Time      `gorm:"not null" json:"timestamp"`
	EventType string         `gorm:"not null;index" json:"event_type"`
	Actor     string         `gorm:"not null" json:"actor"`
	Action    string         `gorm:"type:text;not null" json:"action"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	ActionID  *uuid.UUID     `gorm:"type:uuid;index" json:"action_id,omitempty"`
}
