package store

import (
	"errors"
	"time"

	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound means no action with the given id exists in the backend.
	ErrNotFound = errors.New("action not found")
	// ErrConflict means the action was already resolved by another decision.
	ErrConflict = errors.New("action already resolved")
)

// ActionStore holds proposed actions and their lifecycle state.
//
// Resolve and Finalize are the only mutations after Create, and both are
// compare-and-set writes. Resolve moves an action out of PENDING: a
// concurrent decision that loses the race gets ErrConflict instead of
// silently overwriting the winner. Finalize moves EXECUTING to a terminal
// status: re-delivering the same terminal status is a no-op, and a callback
// against any other state gets ErrConflict so it can never overturn a
// recorded decision or skip the EXECUTING state.
type ActionStore interface {
	Create(a *models.Action) error
	Get(id uuid.UUID) (*models.Action, error)
	ListByStatus(status models.ActionStatus) ([]models.Action, error)
	Resolve(id uuid.UUID, to models.ActionStatus, resolvedBy, resolution string, at time.Time) error
	Finalize(id uuid.UUID, to models.ActionStatus) error
}
