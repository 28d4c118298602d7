package database

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm/logger"
)

// statsLogger wraps the std-log backed gorm logger and feeds Stats from Trace.
type statsLogger struct {
	logger.Interface
}

func newStatsLogger(level logger.LogLevel) statsLogger {
	return statsLogger{logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  level,
			SlowThreshold:             SlowQueryThreshold,
			IgnoreRecordNotFoundError: true,
		},
	)}
}

func (l statsLogger) LogMode(level logger.LogLevel) logger.Interface {
	return statsLogger{l.Interface.LogMode(level)}
}

func (l statsLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	observe(time.Since(begin), err)
	l.Interface.Trace(ctx, begin, fc, err)
}
