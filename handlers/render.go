package handlers

import (
	"fmt"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"

	"originwidget/compositor"
	"originwidget/core"
	"originwidget/models"
)

type renderParams struct {
	pkg    string
	kind   models.SourceKind
	width  int
	height int
	radius int
}

func parseRenderParams(c *gin.Context, needSize bool, h *Handler) (renderParams, error) {
	var p renderParams
	var err error

	p.pkg = c.Query("package")
	if p.kind, err = models.ParseSourceKind(c.Query("kind")); err != nil {
		return p, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	if p.radius, err = intQuery(c, "radius", 0); err != nil {
		return p, err
	}
	if p.radius < 0 {
		return p, fmt.Errorf("%w: radius must be non-negative", core.ErrInvalidRequest)
	}
	if p.width, err = intQuery(c, "width", 0); err != nil {
		return p, err
	}
	if p.height, err = intQuery(c, "height", 0); err != nil {
		return p, err
	}
	if needSize {
		if err := h.checkGeometry(p.width, p.height); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (h *Handler) resolveForRender(c *gin.Context, needSize bool) (renderParams, image.Image, bool) {
	p, err := parseRenderParams(c, needSize, h)
	if err != nil {
		failErr(c, err)
		return p, nil, false
	}
	src, err := h.svc.Compositor.Resolve(p.kind, p.pkg)
	if err != nil {
		failErr(c, err)
		return p, nil, false
	}
	return p, src, true
}

// RenderBackground composites a background for the given package and size.
func (h *Handler) RenderBackground(c *gin.Context) {
	p, src, resolved := h.resolveForRender(c, true)
	if !resolved {
		return
	}
	out := compositor.Composite(src, p.kind, p.width, p.height, p.radius)
	if out == nil {
		fail(c, http.StatusUnprocessableEntity, CodeInvalidRequest, "Source is too small to render")
		return
	}
	h.writePNG(c, out, "")
}

// RenderPreview blurs the resolved background at its own size.
func (h *Handler) RenderPreview(c *gin.Context) {
	_, src, resolved := h.resolveForRender(c, false)
	if !resolved {
		return
	}
	out := compositor.FastBlur(src, compositor.BlurScale, compositor.BlurRadius)
	if out == nil {
		fail(c, http.StatusUnprocessableEntity, CodeInvalidRequest, "Source is empty")
		return
	}
	h.writePNG(c, out, "")
}

// RenderSource returns the resolved background without processing.
func (h *Handler) RenderSource(c *gin.Context) {
	_, src, resolved := h.resolveForRender(c, false)
	if !resolved {
		return
	}
	h.writePNG(c, src, "")
}
