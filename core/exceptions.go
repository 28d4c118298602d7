package core

import (
	"errors"
	"net/http"

	"originwidget/compositor"
)

var (
	ErrWidgetNotFound   = errors.New("widget not found")
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUpdaterStopped   = errors.New("updater stopped")
	ErrSurfaceNotActive = errors.New("widget surface not registered")
)

// StatusCode maps an error to the HTTP status the API answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrWidgetNotFound),
		errors.Is(err, ErrSurfaceNotActive),
		errors.Is(err, compositor.ErrAppNotInstalled):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidGeometry),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, compositor.ErrUnsupportedKind):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpdaterStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
