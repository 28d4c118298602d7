package database

import (
	"errors"
	"log"
	"originwidget/config"
	"originwidget/models"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens the SQLite store described by settings, tunes the connection pool,
// applies PRAGMAs and migrates the widget and settings tables.
// The caller owns the returned handle and must release it with Close.
func Open(settings *config.Config) (*gorm.DB, error) {
	if settings == nil {
		return nil, errors.New("nil settings")
	}

	logLevel := logger.Silent
	if settings.Debug() {
		logLevel = logger.Info
	}

	dsn := buildSQLiteDSN(settings.DatabaseURL, settings)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newStatsLogger(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pool := currentSQLitePoolConfig(settings)
	sqlDB.SetMaxIdleConns(pool.maxIdleConns)
	sqlDB.SetMaxOpenConns(pool.maxOpenConns)
	sqlDB.SetConnMaxIdleTime(time.Duration(pool.maxIdleSec) * time.Second)
	sqlDB.SetConnMaxLifetime(time.Duration(pool.maxLifeSec) * time.Second)

	// DSN parameters cover new connections; run the PRAGMAs once more for files
	// created by older builds.
	if settings.SQLitePragmasEnabled {
		for _, stmt := range pragmaStatements(settings) {
			db.Exec(stmt)
		}
	}

	if err := db.AutoMigrate(&models.WidgetConfig{}, &models.AppSetting{}); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Printf("Database opened: %s", settings.DatabaseURL)
	return db, nil
}

// Close closes the database connection and releases resources
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	log.Println("Closing database connection...")
	return sqlDB.Close()
}
