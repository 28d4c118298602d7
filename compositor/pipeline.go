package compositor

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"originwidget/models"
)

// Composite runs the full background pipeline on an already resolved source:
// icon pre-crop, cover fit to w×h, blur, then rounded corners.
// The result is exactly w×h, or nil when src is nil or the geometry is not positive.
func Composite(src image.Image, kind models.SourceKind, w, h, radius int) *image.NRGBA {
	if src == nil || w <= 0 || h <= 0 {
		return nil
	}
	if kind == models.SourceIcon {
		cropped := CropIconCenter(src)
		if cropped == nil {
			return nil
		}
		src = cropped
	}
	fitted := CoverFit(src, w, h)
	if fitted == nil {
		return nil
	}
	blurred := FastBlur(fitted, BlurScale, BlurRadius)
	if blurred == nil {
		return nil
	}
	return RoundCorners(blurred, radius)
}

// IconCropRect is the central half of b, which strips the padding app icons carry.
func IconCropRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	origin := b.Min.Add(image.Pt(w/4, h/4))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w/2, h/2))}
}

// CropIconCenter keeps the central half of src in each dimension.
func CropIconCenter(src image.Image) *image.NRGBA {
	if src == nil {
		return nil
	}
	r := IconCropRect(src.Bounds())
	if r.Empty() {
		return nil
	}
	return imaging.Crop(src, r)
}

// Fit describes how a source is scaled and cropped to cover a target.
type Fit struct {
	Scaled image.Point     // size the source is resampled to
	Crop   image.Rectangle // window of the scaled image kept, in scaled coordinates
}

// CoverGeometry computes the cover fit of a srcW×srcH source into dstW×dstH.
// A source relatively taller than the target is scaled to the target width and
// cropped vertically, anything else is scaled to the target height and cropped
// horizontally. The ratio comparison is done by cross multiplication so it is exact.
func CoverGeometry(srcW, srcH, dstW, dstH int) (Fit, bool) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Fit{}, false
	}

	var f Fit
	if srcH*dstW > dstH*srcW {
		scaledH := srcH * dstW / srcW
		off := (scaledH - dstH) / 2
		f.Scaled = image.Pt(dstW, scaledH)
		f.Crop = image.Rect(0, off, dstW, off+dstH)
	} else {
		scaledW := srcW * dstH / srcH
		off := (scaledW - dstW) / 2
		f.Scaled = image.Pt(scaledW, dstH)
		f.Crop = image.Rect(off, 0, off+dstW, dstH)
	}
	return f, true
}

// CoverFit scales src to cover w×h and crops the centered w×h window.
func CoverFit(src image.Image, w, h int) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	fit, ok := CoverGeometry(b.Dx(), b.Dy(), w, h)
	if !ok {
		return nil
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, fit.Scaled.X, fit.Scaled.Y))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)
	return imaging.Crop(scaled, fit.Crop)
}
