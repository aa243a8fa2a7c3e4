package store

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/google/uuid"
)

// Failover presents one ActionStore over a durable backend and a volatile
// in-memory one. While the durable backend is absent or failing, writes land
// in memory so a proposed action is degraded rather than discarded. Reads
// consult both so actions created during an outage stay visible.
type Failover struct {
	durable  ActionStore // nil when the database never came up
	volatile *MemoryStore
}

func NewFailover(durable ActionStore, volatile *MemoryStore) *Failover {
	return &Failover{durable: durable, volatile: volatile}
}

func (f *Failover) Create(a *models.Action) error {
	if f.durable != nil {
		err := f.durable.Create(a)
		if err == nil {
			return nil
		}
		slog.Warn("durable store unavailable, keeping action in memory", "action_id", a.ID, "error", err)
	}
	return f.volatile.Create(a)
}

func (f *Failover) Get(id uuid.UUID) (*models.Action, error) {
	if f.durable != nil {
		a, err := f.durable.Get(id)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("durable store read failed", "action_id", id, "error", err)
		}
	}
	return f.volatile.Get(id)
}

func (f *Failover) ListByStatus(status models.ActionStatus) ([]models.Action, error) {
	var merged []models.Action
	seen := make(map[uuid.UUID]bool)

	if f.durable != nil {
		if actions, err := f.durable.ListByStatus(status); err == nil {
			for _, a := range actions {
				merged = append(merged, a)
				seen[a.ID] = true
			}
		} else {
			slog.Warn("durable store list failed", "error", err)
		}
	}

	volatileActions, _ := f.volatile.ListByStatus(status)
	for _, a := range volatileActions {
		if !seen[a.ID] {
			merged = append(merged, a)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].CreatedAt.After(merged[j].CreatedAt) })
	return merged, nil
}

func (f *Failover) Resolve(id uuid.UUID, to models.ActionStatus, resolvedBy, resolution string, at time.Time) error {
	if f.durable != nil {
		err := f.durable.Resolve(id, to, resolvedBy, resolution, at)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrConflict):
			return err
		case errors.Is(err, ErrNotFound):
			// fall through to memory
		default:
			slog.Warn("durable store resolve failed", "action_id", id, "error", err)
		}
	}
	return f.volatile.Resolve(id, to, resolvedBy, resolution, at)
}

func (f *Failover) Finalize(id uuid.UUID, to models.ActionStatus) error {
	if f.durable != nil {
		err := f.durable.Finalize(id, to)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrConflict):
			return err
		case errors.Is(err, ErrNotFound):
			// fall through to memory
		default:
			slog.Warn("durable store finalize failed", "action_id", id, "error", err)
		}
	}
	return f.volatile.Finalize(id, to)
}
