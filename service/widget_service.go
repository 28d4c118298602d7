package service

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"originwidget/core"
	"originwidget/models"
	"originwidget/state"
)

const lockStripes = 64

// WidgetService stores widget configs. Access to one widget id is serialized;
// different ids proceed concurrently.
type WidgetService struct {
	db       *gorm.DB
	surfaces *state.Surfaces
	locks    [lockStripes]sync.RWMutex
}

// NewWidgetService constructs a widget service. surfaces may be nil.
func NewWidgetService(db *gorm.DB, surfaces *state.Surfaces) *WidgetService {
	return &WidgetService{db: db, surfaces: surfaces}
}

func (s *WidgetService) lockFor(id int) *sync.RWMutex {
	idx := id % lockStripes
	if idx < 0 {
		idx = -idx
	}
	return &s.locks[idx]
}

func validID(id int) error {
	if id <= 0 {
		return wrapSentinel(fmt.Sprintf("invalid widget id %d", id), core.ErrInvalidRequest)
	}
	return nil
}

// Get returns the config of one widget, or an error wrapping core.ErrWidgetNotFound.
func (s *WidgetService) Get(id int) (*models.WidgetConfig, error) {
	if id <= 0 {
		return nil, wrapSentinel(fmt.Sprintf("widget %d not found", id), core.ErrWidgetNotFound)
	}

	mu := s.lockFor(id)
	mu.RLock()
	defer mu.RUnlock()

	var cfg models.WidgetConfig
	if err := s.db.First(&cfg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrapSentinel(fmt.Sprintf("widget %d not found", id), core.ErrWidgetNotFound)
		}
		return nil, fmt.Errorf("failed to load widget %d: %w", id, err)
	}
	return &cfg, nil
}

// Exists reports whether a config is stored for id.
func (s *WidgetService) Exists(id int) (bool, error) {
	_, err := s.Get(id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, core.ErrWidgetNotFound) {
		return false, nil
	}
	return false, err
}

// Save stores cfg, replacing every field of an existing row.
func (s *WidgetService) Save(cfg *models.WidgetConfig) error {
	if cfg == nil {
		return wrapSentinel("widget config is required", core.ErrInvalidRequest)
	}
	if err := validID(cfg.ID); err != nil {
		return err
	}

	mu := s.lockFor(cfg.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(cfg).Error; err != nil {
		return fmt.Errorf("failed to save widget %d: %w", cfg.ID, err)
	}
	if s.surfaces != nil {
		s.surfaces.Register(cfg.ID, 0, 0)
	}
	log.Printf("Widget %d saved (package=%s)", cfg.ID, cfg.PackageName)
	return nil
}

// Delete removes the config and the widget's surface. Deleting a missing id is not an error.
func (s *WidgetService) Delete(id int) error {
	if err := validID(id); err != nil {
		return err
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	result := s.db.Delete(&models.WidgetConfig{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete widget %d: %w", id, result.Error)
	}
	if s.surfaces != nil {
		s.surfaces.Remove(id)
	}
	log.Printf("Widget %d deleted (rows=%d)", id, result.RowsAffected)
	return nil
}

// List returns all configs ordered by id.
func (s *WidgetService) List() ([]models.WidgetConfig, error) {
	var configs []models.WidgetConfig
	if err := s.db.Order("id").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list widgets: %w", err)
	}
	return configs, nil
}

// IDs returns the ids of all stored configs.
func (s *WidgetService) IDs() ([]int, error) {
	var ids []int
	if err := s.db.Model(&models.WidgetConfig{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list widget ids: %w", err)
	}
	return ids, nil
}
