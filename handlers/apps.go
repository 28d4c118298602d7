package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"originwidget/compositor"
)

// ListApps returns installed apps sorted by name.
func (h *Handler) ListApps(c *gin.Context) {
	ok(c, h.svc.Catalog.List())
}

// AppIcon returns the raw icon of one app.
func (h *Handler) AppIcon(c *gin.Context) {
	pkg := c.Param("package")
	info, found := h.svc.Catalog.Lookup(pkg)
	if !found || info.Icon == nil {
		failErr(c, fmt.Errorf("%w: %s", compositor.ErrAppNotInstalled, pkg))
		return
	}
	h.writePNG(c, info.Icon, "")
}

// ReloadApps rescans the app catalog when it supports reloading.
func (h *Handler) ReloadApps(c *gin.Context) {
	reloader, canReload := h.svc.Catalog.(interface{ Reload() error })
	if !canReload {
		fail(c, http.StatusNotImplemented, CodeUnavailable, "App catalog cannot be reloaded")
		return
	}
	if err := reloader.Reload(); err != nil {
		fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	ok(c, gin.H{"apps": len(h.svc.Catalog.List())})
}
