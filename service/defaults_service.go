package service

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"originwidget/database"
	"originwidget/models"
)

// Keys of the default parameters that pre-fill a new configuration session.
const (
	KeyMarginHorizontal = "margin_horizontal"
	KeyMarginVertical   = "margin_vertical"
	KeyMarginIcon       = "margin_icon"
	KeyRadius           = "radius"
)

// DefaultsService stores the integer defaults used to pre-fill new widget configs.
type DefaultsService struct {
	db *gorm.DB
}

func NewDefaultsService(db *gorm.DB) *DefaultsService {
	return &DefaultsService{db: db}
}

// GetInt returns the stored value, or 0 when it is missing or unreadable.
func (s *DefaultsService) GetInt(key string) int {
	value, ok, err := database.GetSetting(s.db, key)
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

// SetInt stores one default.
func (s *DefaultsService) SetInt(key string, value int) error {
	if err := database.SetSetting(s.db, key, strconv.Itoa(value)); err != nil {
		return fmt.Errorf("failed to save default %s: %w", key, err)
	}
	return nil
}

// Load reads all defaults.
func (s *DefaultsService) Load() models.Defaults {
	return models.Defaults{
		MarginHorizontal: s.GetInt(KeyMarginHorizontal),
		MarginVertical:   s.GetInt(KeyMarginVertical),
		MarginIcon:       s.GetInt(KeyMarginIcon),
		Radius:           s.GetInt(KeyRadius),
	}
}

// Save writes all defaults in one transaction.
func (s *DefaultsService) Save(d models.Defaults) error {
	err := database.SetSettings(s.db, map[string]string{
		KeyMarginHorizontal: strconv.Itoa(d.MarginHorizontal),
		KeyMarginVertical:   strconv.Itoa(d.MarginVertical),
		KeyMarginIcon:       strconv.Itoa(d.MarginIcon),
		KeyRadius:           strconv.Itoa(d.Radius),
	})
	if err != nil {
		return fmt.Errorf("failed to save defaults: %w", err)
	}
	return nil
}
