package core

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"originwidget/models"
	"originwidget/state"
)

// ConfigSource loads persisted widget configs. A missing id must return an
// error wrapping ErrWidgetNotFound.
type ConfigSource interface {
	Get(id int) (*models.WidgetConfig, error)
}

// Renderer produces the images for one widget.
type Renderer interface {
	WidgetBackground(cfg *models.WidgetConfig, w, h int) *image.NRGBA
	Icon(cfg *models.WidgetConfig) image.Image
}

// UpdaterOptions configures an Updater.
type UpdaterOptions struct {
	Workers       int
	QueueSize     int
	Timeout       time.Duration
	DefaultWidth  int
	DefaultHeight int
	Debug         bool
}

// UpdateResult describes one finished widget update.
type UpdateResult struct {
	TaskID     string        `json:"task_id"`
	WidgetID   int           `json:"widget_id"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Background bool          `json:"background"`
	Icon       bool          `json:"icon"`
	Applied    bool          `json:"applied"`
	Duration   time.Duration `json:"duration_ns"`
}

// UpdaterStats is a point-in-time view of the updater counters.
type UpdaterStats struct {
	Running        bool   `json:"running"`
	Workers        int    `json:"workers"`
	QueueLen       int    `json:"queue_len"`
	QueueCap       int    `json:"queue_cap"`
	Enqueued       uint64 `json:"enqueued_total"`
	Dropped        uint64 `json:"dropped_total"`
	Completed      uint64 `json:"completed_total"`
	Skipped        uint64 `json:"skipped_total"`
	Discarded      uint64 `json:"discarded_total"`
	Failed         uint64 `json:"failed_total"`
	MissingSources uint64 `json:"missing_sources_total"`
}

type updateTask struct {
	id       string
	widgetID int
	queuedAt time.Time
}

// Updater runs widget update requests. Each request loads the config, renders
// the background and icon, and hands the frame to the widget's surface.
// Requests are queued for a fixed pool of workers; different widgets update
// concurrently.
type Updater struct {
	configs  ConfigSource
	renderer Renderer
	surfaces *state.Surfaces
	errLog   *ErrorLogger
	opts     UpdaterOptions

	stateMu sync.RWMutex
	running bool

	queueMu   sync.Mutex
	queue     chan updateTask
	queueStop chan struct{}
	queueWg   sync.WaitGroup

	enqueuedTotal  uint64
	droppedTotal   uint64
	completedTotal uint64
	skippedTotal   uint64
	discardedTotal uint64
	failedTotal    uint64
	missingTotal   uint64
}

// NewUpdater wires an updater. errLog may be nil.
func NewUpdater(configs ConfigSource, renderer Renderer, surfaces *state.Surfaces, errLog *ErrorLogger, opts UpdaterOptions) *Updater {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	return &Updater{
		configs:  configs,
		renderer: renderer,
		surfaces: surfaces,
		errLog:   errLog,
		opts:     opts,
	}
}

// Start launches the workers. Calling Start on a running updater is a no-op.
func (u *Updater) Start() {
	u.stateMu.Lock()
	if u.running {
		u.stateMu.Unlock()
		return
	}
	u.running = true
	u.stateMu.Unlock()

	u.queueMu.Lock()
	defer u.queueMu.Unlock()

	u.queue = make(chan updateTask, u.opts.QueueSize)
	u.queueStop = make(chan struct{})
	for i := 0; i < u.opts.Workers; i++ {
		u.queueWg.Add(1)
		go func(stop <-chan struct{}, q <-chan updateTask) {
			defer u.queueWg.Done()
			u.processQueue(stop, q)
		}(u.queueStop, u.queue)
	}
	log.Printf("Widget updater started: %d worker(s), queue %d", u.opts.Workers, u.opts.QueueSize)
}

// Stop signals the workers and waits for in-flight updates. Queued requests
// that have not started are dropped.
func (u *Updater) Stop() {
	u.stateMu.Lock()
	if !u.running {
		u.stateMu.Unlock()
		return
	}
	u.running = false
	u.stateMu.Unlock()

	u.queueMu.Lock()
	stop := u.queueStop
	u.queueStop = nil
	u.queueMu.Unlock()

	if stop != nil {
		close(stop)
	}
	u.queueWg.Wait()

	u.queueMu.Lock()
	u.queue = nil
	u.queueMu.Unlock()
	log.Printf("Widget updater stopped")
}

func (u *Updater) isRunning() bool {
	u.stateMu.RLock()
	defer u.stateMu.RUnlock()
	return u.running
}

// Enqueue requests an asynchronous update of one widget. It never blocks:
// when the queue is full the request is dropped and false is returned.
func (u *Updater) Enqueue(widgetID int) bool {
	if !u.isRunning() {
		atomic.AddUint64(&u.droppedTotal, 1)
		return false
	}

	u.queueMu.Lock()
	q := u.queue
	u.queueMu.Unlock()
	if q == nil {
		atomic.AddUint64(&u.droppedTotal, 1)
		return false
	}

	task := updateTask{id: uuid.NewString(), widgetID: widgetID, queuedAt: time.Now()}
	select {
	case q <- task:
		atomic.AddUint64(&u.enqueuedTotal, 1)
		return true
	default:
		atomic.AddUint64(&u.droppedTotal, 1)
		log.Printf("Widget update queue full, dropped update for widget %d", widgetID)
		return false
	}
}

// RefreshAll enqueues an update for every id and returns how many were accepted.
func (u *Updater) RefreshAll(widgetIDs []int) int {
	accepted := 0
	for _, id := range widgetIDs {
		if u.Enqueue(id) {
			accepted++
		}
	}
	return accepted
}

// RefreshNow runs one update on the calling goroutine.
func (u *Updater) RefreshNow(ctx context.Context, widgetID int) (UpdateResult, error) {
	task := updateTask{id: uuid.NewString(), widgetID: widgetID, queuedAt: time.Now()}
	return u.run(ctx, task)
}

func (u *Updater) processQueue(stop <-chan struct{}, q <-chan updateTask) {
	for {
		select {
		case <-stop:
			return
		case task := <-q:
			ctx, cancel := u.taskContext()
			_, _ = u.run(ctx, task)
			cancel()
		}
	}
}

func (u *Updater) taskContext() (context.Context, context.CancelFunc) {
	if u.opts.Timeout > 0 {
		return context.WithTimeout(context.Background(), u.opts.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (u *Updater) run(ctx context.Context, task updateTask) (UpdateResult, error) {
	start := time.Now()
	result := UpdateResult{TaskID: task.id, WidgetID: task.widgetID}

	cfg, err := u.configs.Get(task.widgetID)
	if err != nil {
		if errors.Is(err, ErrWidgetNotFound) {
			atomic.AddUint64(&u.skippedTotal, 1)
			u.debugf("[%s] widget %d has no config, skipping", task.id, task.widgetID)
			return result, err
		}
		u.fail(task, "config lookup failed", err)
		return result, fmt.Errorf("load widget %d: %w", task.widgetID, err)
	}

	sf, ok := u.surfaces.Get(task.widgetID)
	if !ok {
		atomic.AddUint64(&u.discardedTotal, 1)
		u.debugf("[%s] widget %d has no surface, discarding", task.id, task.widgetID)
		return result, fmt.Errorf("widget %d: %w", task.widgetID, ErrSurfaceNotActive)
	}
	result.Width, result.Height = sf.Width, sf.Height
	if !sf.HasSize() {
		result.Width, result.Height = u.opts.DefaultWidth, u.opts.DefaultHeight
	}

	if err := ctx.Err(); err != nil {
		u.fail(task, "update cancelled before rendering", err)
		return result, err
	}

	bg := u.renderer.WidgetBackground(cfg, result.Width, result.Height)
	var icon *image.NRGBA
	if raw := u.renderer.Icon(cfg); raw != nil {
		icon = imaging.Clone(raw)
	}
	result.Background = bg != nil
	result.Icon = icon != nil
	if bg == nil || icon == nil {
		atomic.AddUint64(&u.missingTotal, 1)
		u.debugf("[%s] widget %d rendered without background=%v icon=%v", task.id, task.widgetID, result.Background, result.Icon)
	}

	if err := ctx.Err(); err != nil {
		u.fail(task, "update timed out while rendering", err)
		return result, err
	}

	result.Applied = u.surfaces.Apply(task.widgetID, state.Frame{
		Background:        bg,
		Icon:              icon,
		BackgroundPadding: state.BackgroundPadding(cfg),
		IconPadding:       state.IconPadding(cfg),
		ClickTarget:       cfg.PackageName,
	})
	result.Duration = time.Since(start)

	if !result.Applied {
		atomic.AddUint64(&u.discardedTotal, 1)
		u.debugf("[%s] widget %d removed during update, frame discarded", task.id, task.widgetID)
		return result, nil
	}
	atomic.AddUint64(&u.completedTotal, 1)
	u.debugf("[%s] widget %d updated in %v (queued %v)", task.id, task.widgetID, result.Duration, start.Sub(task.queuedAt))
	return result, nil
}

func (u *Updater) fail(task updateTask, message string, err error) {
	atomic.AddUint64(&u.failedTotal, 1)
	log.Printf("[%s] widget %d: %s: %v", task.id, task.widgetID, message, err)
	u.errLog.Error(ErrorEvent{
		Source:   "updater",
		WidgetID: task.widgetID,
		TaskID:   task.id,
		Message:  message,
		Detail:   err.Error(),
	})
}

func (u *Updater) debugf(format string, args ...interface{}) {
	if u.opts.Debug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// QueueLen returns the number of pending requests.
func (u *Updater) QueueLen() int {
	u.queueMu.Lock()
	defer u.queueMu.Unlock()
	if u.queue == nil {
		return 0
	}
	return len(u.queue)
}

// DroppedTotal returns how many requests were dropped.
func (u *Updater) DroppedTotal() uint64 {
	return atomic.LoadUint64(&u.droppedTotal)
}

// Stats returns the current counters.
func (u *Updater) Stats() UpdaterStats {
	u.queueMu.Lock()
	queueLen, queueCap := 0, 0
	if u.queue != nil {
		queueLen, queueCap = len(u.queue), cap(u.queue)
	}
	u.queueMu.Unlock()

	return UpdaterStats{
		Running:        u.isRunning(),
		Workers:        u.opts.Workers,
		QueueLen:       queueLen,
		QueueCap:       queueCap,
		Enqueued:       atomic.LoadUint64(&u.enqueuedTotal),
		Dropped:        atomic.LoadUint64(&u.droppedTotal),
		Completed:      atomic.LoadUint64(&u.completedTotal),
		Skipped:        atomic.LoadUint64(&u.skippedTotal),
		Discarded:      atomic.LoadUint64(&u.discardedTotal),
		Failed:         atomic.LoadUint64(&u.failedTotal),
		MissingSources: atomic.LoadUint64(&u.missingTotal),
	}
}
