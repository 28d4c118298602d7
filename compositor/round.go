package compositor

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// RoundCorners clips src to a rounded rectangle of the given corner radius.
// Pixels outside the rectangle become transparent. The radius is capped at
// half the shorter side; radius <= 0 returns an unmodified copy.
func RoundCorners(src image.Image, radius int) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if radius <= 0 {
		return imaging.Clone(src)
	}
	if limit := min(w, h) / 2; radius > limit {
		radius = limit
	}

	dc := gg.NewContext(w, h)
	dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), float64(radius))
	dc.Clip()
	dc.DrawImage(imaging.Clone(src), 0, 0)
	return imaging.Clone(dc.Image())
}
