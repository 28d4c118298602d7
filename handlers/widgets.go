package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"originwidget/core"
	"originwidget/models"
)

// SizeRequest is the size the host reports for a widget, in pixels.
type SizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ListWidgets returns all stored widget configs.
func (h *Handler) ListWidgets(c *gin.Context) {
	configs, err := h.svc.Widgets.List()
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, configs)
}

// GetWidget returns one widget config.
func (h *Handler) GetWidget(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}
	cfg, err := h.svc.Widgets.Get(id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, cfg)
}

// SaveWidget commits a configuration session for the widget.
func (h *Handler) SaveWidget(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}

	var req models.WidgetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cfg, err := h.svc.Sessions.Commit(id, req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, cfg)
}

// DeleteWidget removes the config and the widget's surface.
func (h *Handler) DeleteWidget(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}
	if err := h.svc.Widgets.Delete(id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"id": id})
}

// ReportSize records the widget's on-screen size and queues a refresh.
func (h *Handler) ReportSize(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}

	var req SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.checkGeometry(req.Width, req.Height); err != nil {
		failErr(c, err)
		return
	}

	sf := h.svc.Surfaces.Register(id, req.Width, req.Height)
	queued := h.svc.Updater.Enqueue(id)
	ok(c, gin.H{"surface": sf, "refresh_queued": queued})
}

// RefreshWidget queues an update of one widget, or runs it inline with ?wait=true.
func (h *Handler) RefreshWidget(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}
	exists, err := h.svc.Widgets.Exists(id)
	if err != nil {
		failErr(c, err)
		return
	}
	if !exists {
		failErr(c, fmt.Errorf("widget %d: %w", id, core.ErrWidgetNotFound))
		return
	}
	h.svc.Surfaces.Register(id, 0, 0)

	if c.Query("wait") == "true" {
		timeout := time.Duration(h.settings.UpdateTimeoutMS) * time.Millisecond
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		result, err := h.svc.Updater.RefreshNow(ctx, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, result)
		return
	}

	if !h.svc.Updater.Enqueue(id) {
		fail(c, http.StatusServiceUnavailable, CodeResourceBusy, "Update queue is full or stopped")
		return
	}
	respond(c, http.StatusAccepted, CodeAccepted, "Refresh queued", gin.H{"id": id})
}

// RefreshAllWidgets queues an update of every stored widget.
func (h *Handler) RefreshAllWidgets(c *gin.Context) {
	queued, err := h.svc.RefreshAll()
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusAccepted, CodeAccepted, "Refresh queued", gin.H{"queued": queued})
}

// GetFrame returns the surface layout of a widget without its images.
func (h *Handler) GetFrame(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}
	sf, found := h.svc.Surfaces.Get(id)
	if !found {
		failErr(c, fmt.Errorf("widget %d: %w", id, core.ErrSurfaceNotActive))
		return
	}
	ok(c, sf)
}

// FrameBackground returns the last finished background of a widget.
func (h *Handler) FrameBackground(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}
	sf, found := h.svc.Surfaces.Get(id)
	if !found {
		failErr(c, fmt.Errorf("widget %d: %w", id, core.ErrSurfaceNotActive))
		return
	}
	if sf.Background == nil {
		fail(c, http.StatusNotFound, CodeNotFound, "No background rendered yet")
		return
	}
	h.writePNG(c, sf.Background, sf.BackgroundHash)
}

// FrameIcon returns the last finished icon of a widget.
func (h *Handler) FrameIcon(c *gin.Context) {
	id, valid := widgetIDParam(c)
	if !valid {
		return
	}
	sf, found := h.svc.Surfaces.Get(id)
	if !found {
		failErr(c, fmt.Errorf("widget %d: %w", id, core.ErrSurfaceNotActive))
		return
	}
	if sf.Icon == nil {
		fail(c, http.StatusNotFound, CodeNotFound, "No icon rendered yet")
		return
	}
	h.writePNG(c, sf.Icon, sf.IconHash)
}

// NewSession returns a config request pre-filled from the stored defaults.
func (h *Handler) NewSession(c *gin.Context) {
	ok(c, h.svc.Sessions.New())
}

// GetDefaults returns the stored default margins and radius.
func (h *Handler) GetDefaults(c *gin.Context) {
	ok(c, h.svc.Defaults.Load())
}
