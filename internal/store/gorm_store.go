package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore is the durable ActionStore backend.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(a *models.Action) error {
	if err := s.db.Create(a).Error; err != nil {
		return fmt.Errorf("create action: %w", err)
	}
	return nil
}

func (s *GormStore) Get(id uuid.UUID) (*models.Action, error) {
	var a models.Action
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get action: %w", err)
	}
	return &a, nil
}

func (s *GormStore) ListByStatus(status models.ActionStatus) ([]models.Action, error) {
	var actions []models.Action
	if err := s.db.Where("status = ?", status).Order("created_at DESC").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return actions, nil
}

// Resolve records a human decision. The update is a single atomic
// write-by-id guarded on the PENDING state; zero affected rows means either
// the action does not exist or another decision won the race.
func (s *GormStore) Resolve(id uuid.UUID, to models.ActionStatus, resolvedBy, resolution string, at time.Time) error {
	res := s.db.Model(&models.Action{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      to,
			"resolved_at": at,
			"resolved_by": resolvedBy,
			"resolution":  resolution,
		})
	if res.Error != nil {
		return fmt.Errorf("resolve action: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&models.Action{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("resolve action: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Finalize records an executor result. The update is guarded on the
// EXECUTING state, so a callback can never complete an action that was
// never approved or overturn a recorded decision.
func (s *GormStore) Finalize(id uuid.UUID, to models.ActionStatus) error {
	res := s.db.Model(&models.Action{}).
		Where("id = ? AND status = ?", id, models.StatusExecuting).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("finalize action: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var a models.Action
		if err := s.db.Select("status").First(&a, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("finalize action: %w", err)
		}
		// Repeat delivery of the same terminal status is idempotent.
		if a.Status == to {
			return nil
		}
		return ErrConflict
	}
	return nil
}
