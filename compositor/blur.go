package compositor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// BlurScale is the working resolution of the blur relative to the input.
	BlurScale = 0.3
	// BlurRadius is the blur strength applied to every background.
	BlurRadius = 25
	// MaxBlurRadius caps the requested radius.
	MaxBlurRadius = 25
)

// FastBlur blurs src at a reduced working resolution and scales the result
// back to the size of src. The kernel is a Gaussian with the variance of a
// stack blur of the given radius. A radius <= 0 returns a copy.
func FastBlur(src image.Image, scale float64, radius int) *image.NRGBA {
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
	if radius > MaxBlurRadius {
		radius = MaxBlurRadius
	}
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	sw := max(1, int(math.Round(float64(w)*scale)))
	sh := max(1, int(math.Round(float64(h)*scale)))
	work := imaging.Resize(src, sw, sh, imaging.Linear)

	blurred := imaging.Blur(work, stackSigma(radius))

	if sw == w && sh == h {
		return blurred
	}
	return imaging.Resize(blurred, w, h, imaging.Linear)
}

// stackSigma is the standard deviation of a stack blur kernel of radius r,
// whose weights fall linearly from r+1 at the center to 1 at the edge.
func stackSigma(r int) float64 {
	return math.Sqrt(float64(r*(r+2)) / 6)
}
