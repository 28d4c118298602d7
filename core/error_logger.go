package core

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"originwidget/models"
)

// ErrorEvent describes one failure to record.
type ErrorEvent struct {
	Source   string
	WidgetID int
	TaskID   string
	Message  string
	Detail   string
	Context  map[string]interface{}
}

// ErrorLogger keeps the most recent error entries in a fixed ring.
// Entry ids keep increasing across Clear so clients never see an id reused.
type ErrorLogger struct {
	mu      sync.RWMutex
	ring    []models.ErrorLog
	start   int
	size    int
	counter int
}

// NewErrorLogger returns a logger holding at most capacity entries (100 if <= 0).
func NewErrorLogger(capacity int) *ErrorLogger {
	if capacity <= 0 {
		capacity = 100
	}
	return &ErrorLogger{ring: make([]models.ErrorLog, capacity)}
}

// Error records an ERROR entry. A nil logger drops it.
func (e *ErrorLogger) Error(ev ErrorEvent) {
	e.record("ERROR", ev)
}

// Warn records a WARN entry.
func (e *ErrorLogger) Warn(ev ErrorEvent) {
	e.record("WARN", ev)
}

func (e *ErrorLogger) record(level string, ev ErrorEvent) {
	if e == nil {
		return
	}

	entry := models.ErrorLog{
		Timestamp: time.Now(),
		Level:     level,
		Source:    ev.Source,
		WidgetID:  ev.WidgetID,
		TaskID:    ev.TaskID,
		Message:   ev.Message,
		Detail:    ev.Detail,
		// record, Error/Warn, then the caller.
		Stack: stackTrace(3),
	}
	if len(ev.Context) > 0 {
		if data, err := json.Marshal(ev.Context); err == nil {
			entry.Context = string(data)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.counter++
	entry.ID = e.counter
	if e.size < len(e.ring) {
		e.ring[(e.start+e.size)%len(e.ring)] = entry
		e.size++
		return
	}
	e.ring[e.start] = entry
	e.start = (e.start + 1) % len(e.ring)
}

// Recent returns copies of the stored entries, newest first. A positive
// widgetID keeps only entries for that widget.
func (e *ErrorLogger) Recent(widgetID int) []models.ErrorLog {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.ErrorLog, 0, e.size)
	for i := e.size - 1; i >= 0; i-- {
		entry := e.ring[(e.start+i)%len(e.ring)]
		if widgetID > 0 && entry.WidgetID != widgetID {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Get returns the entry with the given id if it is still stored.
func (e *ErrorLogger) Get(id int) (models.ErrorLog, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for i := 0; i < e.size; i++ {
		if entry := e.ring[(e.start+i)%len(e.ring)]; entry.ID == id {
			return entry, true
		}
	}
	return models.ErrorLog{}, false
}

// Count returns the number of stored entries.
func (e *ErrorLogger) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.size
}

// Clear drops all stored entries.
func (e *ErrorLogger) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.ring)
	e.start, e.size = 0, 0
}

func stackTrace(skip int) string {
	const maxDepth = 10
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}
