package service

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"originwidget/apps"
	"originwidget/compositor"
	"originwidget/config"
	"originwidget/core"
	"originwidget/state"
)

// Services holds everything the HTTP layer and the update pipeline share.
type Services struct {
	DB         *gorm.DB
	Catalog    apps.Catalog
	Compositor *compositor.Compositor
	Surfaces   *state.Surfaces
	ErrorLog   *core.ErrorLogger
	Updater    *core.Updater
	Widgets    *WidgetService
	Defaults   *DefaultsService
	Sessions   *SessionService
}

// New wires the services. The updater is created stopped; call Start.
func New(db *gorm.DB, catalog apps.Catalog, settings *config.Config) *Services {
	comp := compositor.New(catalog)
	comp.Debug = settings.Debug()

	surfaces := state.NewSurfaces()
	errLog := core.NewErrorLogger(settings.MaxErrorLogs)
	widgets := NewWidgetService(db, surfaces)
	defaults := NewDefaultsService(db)

	updater := core.NewUpdater(widgets, comp, surfaces, errLog, core.UpdaterOptions{
		Workers:       settings.UpdateWorkers,
		QueueSize:     settings.UpdateQueueSize,
		Timeout:       time.Duration(settings.UpdateTimeoutMS) * time.Millisecond,
		DefaultWidth:  settings.DefaultWidgetWidth,
		DefaultHeight: settings.DefaultWidgetHeight,
		Debug:         settings.Debug(),
	})

	return &Services{
		DB:         db,
		Catalog:    catalog,
		Compositor: comp,
		Surfaces:   surfaces,
		ErrorLog:   errLog,
		Updater:    updater,
		Widgets:    widgets,
		Defaults:   defaults,
		Sessions:   NewSessionService(defaults, widgets, updater),
	}
}

// Start launches the update workers.
func (s *Services) Start() {
	s.Updater.Start()
}

// Stop waits for in-flight updates to finish.
func (s *Services) Stop() {
	s.Updater.Stop()
}

// RefreshAll registers a surface for every stored widget and queues an
// update for each. It returns the number of queued updates.
func (s *Services) RefreshAll() (int, error) {
	ids, err := s.Widgets.IDs()
	if err != nil {
		return 0, fmt.Errorf("refresh all: %w", err)
	}
	for _, id := range ids {
		s.Surfaces.Register(id, 0, 0)
	}
	return s.Updater.RefreshAll(ids), nil
}
