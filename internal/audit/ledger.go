// Package audit records the immutable lifecycle history. Events are only
// ever appended; nothing in this package updates or deletes a row.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger is the append-only audit log.
type Ledger interface {
	Append(e *models.AuditEvent) error
	Recent(limit int) ([]models.AuditEvent, error)
}

// Event builds an AuditEvent from loose parts. Metadata marshal failures are
// tolerated; the event is still recorded without its payload.
func Event(eventType, actor, action string, metadata map[string]interface{}, actionID *uuid.UUID) *models.AuditEvent {
	e := &models.AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Actor:     actor,
		Action:    action,
		ActionID:  actionID,
	}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = datatypes.JSON(b)
		}
	}
	return e
}

// GormLedger is the durable ledger backend.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Append(e *models.AuditEvent) error {
	if err := l.db.Create(e).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (l *GormLedger) Recent(limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := l.db.Order("sequence DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}

// MemoryLedger is the volatile ledger backend. It assigns its own monotonic
// sequence so ordering stays meaningful while the database is down.
type MemoryLedger struct {
	mu     sync.RWMutex
	seq    uint64
	events []models.AuditEvent
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(e *models.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	e.Sequence = l.seq
	l.events = append(l.events, *e)
	return nil
}

func (l *MemoryLedger) Recent(limit int) ([]models.AuditEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := len(l.events)
	if limit > n {
		limit = n
	}
	out := make([]models.AuditEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}

// FailoverLedger appends to the durable backend when it is reachable and to
// memory otherwise, so lifecycle history is degraded rather than dropped.
type FailoverLedger struct {
	durable  Ledger // nil when the database never came up
	volatile *MemoryLedger
}

func NewFailoverLedger(durable Ledger, volatile *MemoryLedger) *FailoverLedger {
	return &FailoverLedger{durable: durable, volatile: volatile}
}

func (l *FailoverLedger) Append(e *models.AuditEvent) error {
	if l.durable != nil {
		err := l.durable.Append(e)
		if err == nil {
			return nil
		}
		slog.Warn("audit ledger unavailable, keeping event in memory", "event_type", e.EventType, "error", err)
	}
	return l.volatile.Append(e)
}

func (l *FailoverLedger) Recent(limit int) ([]models.AuditEvent, error) {
	if l.durable != nil {
		events, err := l.durable.Recent(limit)
		if err == nil {
			return events, nil
		}
		slog.Warn("audit ledger read failed", "error", err)
	}
	return l.volatile.Recent(limit)
}
