package database

import (
	"errors"
	"originwidget/models"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNilDB = errors.New("database not initialized")

// GetSetting returns a persisted key/value setting.
// ok is false when the key does not exist.
func GetSetting(db *gorm.DB, key string) (value string, ok bool, err error) {
	if db == nil {
		return "", false, errNilDB
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("empty setting key")
	}

	var s models.AppSetting
	if err := db.First(&s, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return s.Value, true, nil
}

// SetSetting persists a key/value setting, replacing any previous value.
func SetSetting(db *gorm.DB, key, value string) error {
	if db == nil {
		return errNilDB
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty setting key")
	}

	return db.Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&models.AppSetting{Key: key, Value: strings.TrimSpace(value)}).Error
}

// SetSettings writes several settings in one transaction.
func SetSettings(db *gorm.DB, values map[string]string) error {
	if db == nil {
		return errNilDB
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for k, v := range values {
			if err := SetSetting(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSetting removes a persisted setting if it exists.
func DeleteSetting(db *gorm.DB, key string) error {
	if db == nil {
		return errNilDB
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty setting key")
	}

	return db.Where("key = ?", key).Delete(&models.AppSetting{}).Error
}
