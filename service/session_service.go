package service

import (
	"fmt"
	"log"

	"originwidget/core"
	"originwidget/models"
)

// Refresher requests widget updates.
type Refresher interface {
	Enqueue(widgetID int) bool
}

// SessionService runs the configure-then-save flow for one widget.
type SessionService struct {
	defaults  *DefaultsService
	widgets   *WidgetService
	refresher Refresher
}

func NewSessionService(defaults *DefaultsService, widgets *WidgetService, refresher Refresher) *SessionService {
	return &SessionService{defaults: defaults, widgets: widgets, refresher: refresher}
}

// New returns a request pre-filled with the stored default margins and radius.
func (s *SessionService) New() models.WidgetConfigRequest {
	d := s.defaults.Load()
	return models.WidgetConfigRequest{
		BackgroundKind:   models.SourceIcon,
		IconKind:         models.SourceIcon,
		Radius:           d.Radius,
		MarginHorizontal: d.MarginHorizontal,
		MarginVertical:   d.MarginVertical,
		MarginIcon:       d.MarginIcon,
	}
}

// Commit stores req's margins and radius as the new defaults, saves the
// widget config and requests a refresh of the widget.
func (s *SessionService) Commit(id int, req models.WidgetConfigRequest) (*models.WidgetConfig, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, wrapSentinel(err.Error(), core.ErrInvalidRequest)
	}

	err := s.defaults.Save(models.Defaults{
		MarginHorizontal: req.MarginHorizontal,
		MarginVertical:   req.MarginVertical,
		MarginIcon:       req.MarginIcon,
		Radius:           req.Radius,
	})
	if err != nil {
		return nil, err
	}

	cfg := req.ToConfig(id)
	if err := s.widgets.Save(&cfg); err != nil {
		return nil, fmt.Errorf("commit widget %d: %w", id, err)
	}

	if s.refresher != nil && !s.refresher.Enqueue(id) {
		log.Printf("Widget %d saved but refresh was not queued", id)
	}
	return &cfg, nil
}
