package models

import "time"

// ErrorLog is one entry of the in-memory error log.
// WidgetID is 0 and TaskID empty when the failure is not tied to a widget update.
type ErrorLog struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // ERROR, WARN
	Source    string    `json:"source"`
	WidgetID  int       `json:"widget_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail"`
	Stack     string    `json:"stack"`
	Context   string    `json:"context,omitempty"` // JSON object
}
