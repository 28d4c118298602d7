package database

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// SlowQueryThreshold marks a statement as slow in Stats and in the gorm log.
const SlowQueryThreshold = 200 * time.Millisecond

// Stats counts statements traced through the gorm logger since process start.
type Stats struct {
	Queries      uint64 `json:"queries_total"`
	SlowQueries  uint64 `json:"slow_queries_total"`
	BusyErrors   uint64 `json:"busy_errors_total"`
	LockedErrors uint64 `json:"locked_errors_total"`
}

var counters struct {
	queries atomic.Uint64
	slow    atomic.Uint64
	busy    atomic.Uint64
	locked  atomic.Uint64
}

// Snapshot returns the current statement counters.
func Snapshot() Stats {
	return Stats{
		Queries:      counters.queries.Load(),
		SlowQueries:  counters.slow.Load(),
		BusyErrors:   counters.busy.Load(),
		LockedErrors: counters.locked.Load(),
	}
}

// contention reports whether err is SQLITE_BUSY or SQLITE_LOCKED. Context
// cancellation is never counted.
func contention(err error) (busy bool, locked bool) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, false
	}

	msg := strings.ToLower(err.Error())
	busy = strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy timeout")
	locked = strings.Contains(msg, "sqlite_locked") ||
		strings.Contains(msg, "database table is locked")
	return busy, locked
}

func observe(elapsed time.Duration, err error) {
	counters.queries.Add(1)
	if elapsed >= SlowQueryThreshold {
		counters.slow.Add(1)
	}
	busy, locked := contention(err)
	if busy {
		counters.busy.Add(1)
	}
	if locked {
		counters.locked.Add(1)
	}
}

// SQLiteUp pings db, bounding the probe to 200ms when ctx has no deadline.
func SQLiteUp(ctx context.Context, db *gorm.DB) bool {
	if db == nil {
		return false
	}
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
	}
	return sqlDB.PingContext(ctx) == nil
}
