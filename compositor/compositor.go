// Package compositor turns a widget's configured source into the finished
// background and icon images shown on the widget surface.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"log"

	"originwidget/apps"
	"originwidget/models"
)

var (
	// ErrAppNotInstalled is returned when the configured package has no installed app.
	ErrAppNotInstalled = errors.New("app not installed")
	// ErrUnsupportedKind is returned for source kinds that have no resolver.
	ErrUnsupportedKind = errors.New("unsupported source kind")
)

// Compositor renders widget images from sources resolved through an app catalog.
// It keeps no mutable state and may be shared between goroutines.
type Compositor struct {
	catalog apps.Catalog

	// Debug enables logging of why a render produced no image.
	Debug bool
}

// New returns a Compositor resolving app icons from catalog.
func New(catalog apps.Catalog) *Compositor {
	return &Compositor{catalog: catalog}
}

// Resolve returns the raw source image for kind.
func (c *Compositor) Resolve(kind models.SourceKind, packageName string) (image.Image, error) {
	switch kind {
	case models.SourceIcon:
		return c.resolveAppIcon(packageName)
	case models.SourceColor, models.SourcePicture:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, int(kind))
	}
}

func (c *Compositor) resolveAppIcon(packageName string) (image.Image, error) {
	if c.catalog == nil || packageName == "" {
		return nil, fmt.Errorf("%w: %q", ErrAppNotInstalled, packageName)
	}
	info, ok := c.catalog.Lookup(packageName)
	if !ok || info.Icon == nil {
		return nil, fmt.Errorf("%w: %s", ErrAppNotInstalled, packageName)
	}
	return info.Icon, nil
}

// Background returns the unprocessed background source, or nil when it cannot be resolved.
func (c *Compositor) Background(cfg *models.WidgetConfig) image.Image {
	if cfg == nil {
		return nil
	}
	img, err := c.Resolve(cfg.BackgroundKind, cfg.PackageName)
	if err != nil {
		c.debugf("Widget %d background unresolved: %v", cfg.ID, err)
		return nil
	}
	return img
}

// Icon returns the raw app icon when the icon kind is Icon, otherwise nil.
func (c *Compositor) Icon(cfg *models.WidgetConfig) image.Image {
	if cfg == nil {
		return nil
	}
	if cfg.IconKind != models.SourceIcon {
		c.debugf("Widget %d icon kind %s has no icon", cfg.ID, cfg.IconKind)
		return nil
	}
	img, err := c.Resolve(cfg.IconKind, cfg.PackageName)
	if err != nil {
		c.debugf("Widget %d icon unresolved: %v", cfg.ID, err)
		return nil
	}
	return img
}

// WidgetBackground renders the finished background for a w×h surface.
func (c *Compositor) WidgetBackground(cfg *models.WidgetConfig, w, h int) *image.NRGBA {
	if cfg == nil {
		return nil
	}
	if w <= 0 || h <= 0 {
		c.debugf("Widget %d has no size yet (%dx%d)", cfg.ID, w, h)
		return nil
	}
	src := c.Background(cfg)
	if src == nil {
		return nil
	}
	return Composite(src, cfg.BackgroundKind, w, h, cfg.Radius)
}

// PreviewBackground blurs the resolved background at its own size, without
// fitting or rounding.
func (c *Compositor) PreviewBackground(cfg *models.WidgetConfig) *image.NRGBA {
	src := c.Background(cfg)
	if src == nil {
		return nil
	}
	return FastBlur(src, BlurScale, BlurRadius)
}

func (c *Compositor) debugf(format string, args ...interface{}) {
	if c.Debug {
		log.Printf("[DEBUG] "+format, args...)
	}
}
