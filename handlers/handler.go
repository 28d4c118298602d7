// Package handlers exposes widgets, frames and renders over HTTP for the widget host.
package handlers

import (
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"originwidget/config"
	"originwidget/core"
	"originwidget/service"
)

// Handler serves the HTTP API on top of the shared services.
type Handler struct {
	svc      *service.Services
	settings *config.Config
	buffers  *core.BufferPool
}

func New(svc *service.Services, settings *config.Config) *Handler {
	return &Handler{svc: svc, settings: settings, buffers: core.NewBufferPool(4 << 20)}
}

func widgetIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "Invalid widget ID")
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidRequest, name)
	}
	return n, nil
}

// checkGeometry rejects sizes the renderer would refuse or that exceed the configured limit.
func (h *Handler) checkGeometry(w, ht int) error {
	if w <= 0 || ht <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d", core.ErrInvalidGeometry, w, ht)
	}
	if limit := h.settings.RenderMaxDimension; limit > 0 && (w > limit || ht > limit) {
		return fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", core.ErrInvalidGeometry, w, ht, limit)
	}
	return nil
}

// writePNG encodes img. A matching If-None-Match answers 304 without a body.
func (h *Handler) writePNG(c *gin.Context, img image.Image, etag string) {
	if etag != "" {
		quoted := strconv.Quote(etag)
		c.Header("ETag", quoted)
		c.Header("Cache-Control", "no-cache")
		if c.GetHeader("If-None-Match") == quoted {
			c.Status(http.StatusNotModified)
			return
		}
	}

	b := img.Bounds()
	buf := h.buffers.Get(b.Dx() * b.Dy() * 4)
	defer h.buffers.Put(buf)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		fail(c, http.StatusInternalServerError, CodeInternal, "Failed to encode image: "+err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
