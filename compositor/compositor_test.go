package compositor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"originwidget/apps"
	"originwidget/models"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// gradient encodes each pixel's coordinates in its color so crops can be located.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func TestCoverGeometry(t *testing.T) {
	tests := []struct {
		name             string
		srcW, srcH       int
		dstW, dstH       int
		scaledW, scaledH int
		crop             image.Rectangle
	}{
		{"taller source scales by width", 100, 300, 50, 100, 50, 150, image.Rect(0, 25, 50, 125)},
		{"wider source scales by height", 300, 100, 100, 50, 150, 50, image.Rect(25, 0, 125, 50)},
		{"equal ratio", 200, 100, 100, 50, 100, 50, image.Rect(0, 0, 100, 50)},
		{"square into portrait", 96, 96, 80, 120, 120, 120, image.Rect(20, 0, 100, 120)},
		{"odd remainder floors", 10, 31, 10, 20, 10, 31, image.Rect(0, 5, 10, 25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, ok := CoverGeometry(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			if !ok {
				t.Fatalf("expected geometry")
			}
			if fit.Scaled != image.Pt(tt.scaledW, tt.scaledH) {
				t.Fatalf("scaled = %v, want %dx%d", fit.Scaled, tt.scaledW, tt.scaledH)
			}
			if fit.Crop != tt.crop {
				t.Fatalf("crop = %v, want %v", fit.Crop, tt.crop)
			}
			if fit.Crop.Dx() != tt.dstW || fit.Crop.Dy() != tt.dstH {
				t.Fatalf("crop size = %dx%d, want %dx%d", fit.Crop.Dx(), fit.Crop.Dy(), tt.dstW, tt.dstH)
			}
		})
	}
}

func TestCoverGeometry_RejectsNonPositive(t *testing.T) {
	cases := [][4]int{{0, 10, 10, 10}, {10, 0, 10, 10}, {10, 10, 0, 10}, {10, 10, 10, -1}}
	for _, c := range cases {
		if _, ok := CoverGeometry(c[0], c[1], c[2], c[3]); ok {
			t.Fatalf("expected no geometry for %v", c)
		}
	}
}

func TestCoverGeometry_AlwaysCoversTarget(t *testing.T) {
	for srcW := 1; srcW <= 40; srcW += 3 {
		for srcH := 1; srcH <= 40; srcH += 5 {
			for dstW := 1; dstW <= 30; dstW += 7 {
				for dstH := 1; dstH <= 30; dstH += 4 {
					fit, ok := CoverGeometry(srcW, srcH, dstW, dstH)
					if !ok {
						t.Fatalf("no geometry for %dx%d -> %dx%d", srcW, srcH, dstW, dstH)
					}
					bounds := image.Rect(0, 0, fit.Scaled.X, fit.Scaled.Y)
					if !fit.Crop.In(bounds) {
						t.Fatalf("%dx%d -> %dx%d: crop %v outside %v", srcW, srcH, dstW, dstH, fit.Crop, bounds)
					}
					if fit.Crop.Dx() != dstW || fit.Crop.Dy() != dstH {
						t.Fatalf("%dx%d -> %dx%d: crop %v", srcW, srcH, dstW, dstH, fit.Crop)
					}
				}
			}
		}
	}
}

func TestIconCropRect(t *testing.T) {
	if got, want := IconCropRect(image.Rect(0, 0, 192, 192)), image.Rect(48, 48, 144, 144); got != want {
		t.Fatalf("IconCropRect = %v, want %v", got, want)
	}
	if got, want := IconCropRect(image.Rect(10, 20, 110, 60)), image.Rect(35, 30, 85, 50); got != want {
		t.Fatalf("IconCropRect offset bounds = %v, want %v", got, want)
	}
}

func TestCropIconCenter(t *testing.T) {
	out := CropIconCenter(gradient(8, 12))
	if out == nil {
		t.Fatalf("expected image")
	}
	if got := out.Bounds().Size(); got != image.Pt(4, 6) {
		t.Fatalf("size = %v, want 4x6", got)
	}
	if got := out.NRGBAAt(0, 0); got.R != 2 || got.G != 3 {
		t.Fatalf("top-left pixel came from (%d,%d), want (2,3)", got.R, got.G)
	}
	if CropIconCenter(gradient(1, 1)) != nil {
		t.Fatalf("expected nil for a source too small to crop")
	}
	if CropIconCenter(nil) != nil {
		t.Fatalf("expected nil for nil source")
	}
}

func TestCoverFit_CentersCrop(t *testing.T) {
	// 40 wide, 10 tall into 10x10: scaled to 40x10, crop x offset 15.
	out := CoverFit(gradient(40, 10), 10, 10)
	if out == nil {
		t.Fatalf("expected image")
	}
	if got := out.Bounds().Size(); got != image.Pt(10, 10) {
		t.Fatalf("size = %v", got)
	}
	if got := out.NRGBAAt(0, 0).R; absDiff(got, 15) > 1 {
		t.Fatalf("left column came from x=%d, want 15", got)
	}
	if got := out.NRGBAAt(9, 0).R; absDiff(got, 24) > 1 {
		t.Fatalf("right column came from x=%d, want 24", got)
	}
}

func TestCoverFit_NilCases(t *testing.T) {
	if CoverFit(nil, 10, 10) != nil {
		t.Fatalf("expected nil for nil source")
	}
	if CoverFit(gradient(4, 4), 0, 10) != nil {
		t.Fatalf("expected nil for zero width")
	}
	if CoverFit(gradient(4, 4), 10, -3) != nil {
		t.Fatalf("expected nil for negative height")
	}
	if CoverFit(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 10, 10) != nil {
		t.Fatalf("expected nil for empty source")
	}
}

func TestFastBlur_KeepsSizeAndFlatColor(t *testing.T) {
	c := color.NRGBA{R: 200, G: 40, B: 90, A: 255}
	out := FastBlur(solid(50, 30, c), BlurScale, BlurRadius)
	if out == nil {
		t.Fatalf("expected image")
	}
	if got := out.Bounds().Size(); got != image.Pt(50, 30) {
		t.Fatalf("size = %v, want 50x30", got)
	}
	for _, p := range []image.Point{{0, 0}, {49, 0}, {25, 15}, {0, 29}, {49, 29}} {
		px := out.NRGBAAt(p.X, p.Y)
		if px.A != 255 || absDiff(px.R, c.R) > 1 || absDiff(px.G, c.G) > 1 || absDiff(px.B, c.B) > 1 {
			t.Fatalf("flat color changed at %v: %v", p, px)
		}
	}
}

func TestFastBlur_OpaqueStaysOpaque(t *testing.T) {
	src := gradient(80, 120)
	for _, radius := range []int{1, 5, BlurRadius, 100} {
		out := FastBlur(src, BlurScale, radius)
		for y := 0; y < 120; y++ {
			for x := 0; x < 80; x++ {
				if a := out.NRGBAAt(x, y).A; a != 255 {
					t.Fatalf("radius %d: pixel (%d,%d) alpha = %d, want 255", radius, x, y, a)
				}
			}
		}
	}
}

func TestStackSigma(t *testing.T) {
	if got := stackSigma(BlurRadius); math.Abs(got-math.Sqrt(112.5)) > 1e-9 {
		t.Fatalf("stackSigma(%d) = %v", BlurRadius, got)
	}
	if stackSigma(1) >= stackSigma(2) {
		t.Fatalf("sigma must grow with the radius")
	}
}

func TestFastBlur_Smooths(t *testing.T) {
	img := solid(40, 40, color.NRGBA{A: 255})
	for y := 0; y < 40; y++ {
		for x := 20; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	out := FastBlur(img, 1, 10)
	edge := out.NRGBAAt(20, 20).R
	if edge == 0 || edge == 255 {
		t.Fatalf("expected a blended value at the edge, got %d", edge)
	}
}

func TestFastBlur_ZeroRadiusCopies(t *testing.T) {
	src := gradient(5, 5)
	out := FastBlur(src, BlurScale, 0)
	if out == src {
		t.Fatalf("expected a copy")
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if out.NRGBAAt(x, y) != src.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed", x, y)
			}
		}
	}
	if FastBlur(nil, BlurScale, BlurRadius) != nil {
		t.Fatalf("expected nil for nil source")
	}
}

func TestRoundCorners_ZeroRadiusIsNoOp(t *testing.T) {
	src := gradient(16, 16)
	out := RoundCorners(src, 0)
	for _, p := range []image.Point{{0, 0}, {15, 0}, {0, 15}, {15, 15}, {8, 8}} {
		if out.NRGBAAt(p.X, p.Y) != src.NRGBAAt(p.X, p.Y) {
			t.Fatalf("pixel %v changed", p)
		}
	}
}

func TestRoundCorners_ClipsCorners(t *testing.T) {
	out := RoundCorners(solid(40, 30, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), 10)
	if got := out.Bounds().Size(); got != image.Pt(40, 30) {
		t.Fatalf("size = %v", got)
	}
	for _, p := range []image.Point{{0, 0}, {39, 0}, {0, 29}, {39, 29}} {
		if a := out.NRGBAAt(p.X, p.Y).A; a != 0 {
			t.Fatalf("corner %v alpha = %d, want 0", p, a)
		}
	}
	center := out.NRGBAAt(20, 15)
	if center.A != 255 || absDiff(center.R, 10) > 1 || absDiff(center.B, 30) > 1 {
		t.Fatalf("center pixel = %v", center)
	}
	if a := out.NRGBAAt(20, 0).A; a < 250 {
		t.Fatalf("top edge midpoint alpha = %d, want opaque", a)
	}
}

func TestRoundCorners_ClampsRadius(t *testing.T) {
	out := RoundCorners(solid(20, 10, color.NRGBA{R: 255, A: 255}), 500)
	if out == nil || out.Bounds().Size() != image.Pt(20, 10) {
		t.Fatalf("unexpected output %v", out)
	}
	if a := out.NRGBAAt(10, 5).A; a != 255 {
		t.Fatalf("center alpha = %d", a)
	}
}

func TestComposite_IconExample(t *testing.T) {
	out := Composite(gradient(192, 192), models.SourceIcon, 80, 120, 12)
	if out == nil {
		t.Fatalf("expected image")
	}
	if got := out.Bounds().Size(); got != image.Pt(80, 120) {
		t.Fatalf("size = %v, want 80x120", got)
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Fatalf("corner alpha = %d, want 0", a)
	}
	if a := out.NRGBAAt(40, 60).A; a != 255 {
		t.Fatalf("center alpha = %d, want 255", a)
	}
}

func TestComposite_ZeroRadiusIsOpaque(t *testing.T) {
	c := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	out := Composite(solid(80, 120, c), models.SourceColor, 80, 120, 0)
	if out == nil {
		t.Fatalf("expected image")
	}
	for _, p := range []image.Point{{0, 0}, {79, 0}, {0, 119}, {79, 119}, {40, 60}} {
		px := out.NRGBAAt(p.X, p.Y)
		if px.A != 255 || absDiff(px.R, c.R) > 1 || absDiff(px.G, c.G) > 1 || absDiff(px.B, c.B) > 1 {
			t.Fatalf("pixel %v = %v, want %v", p, px, c)
		}
	}
}

func TestComposite_Absence(t *testing.T) {
	if Composite(nil, models.SourceIcon, 10, 10, 0) != nil {
		t.Fatalf("expected nil for nil source")
	}
	if Composite(gradient(10, 10), models.SourceIcon, 0, 10, 0) != nil {
		t.Fatalf("expected nil for zero width")
	}
	if Composite(gradient(10, 10), models.SourceIcon, 10, 0, 0) != nil {
		t.Fatalf("expected nil for zero height")
	}
}

func TestCompositor_Resolve(t *testing.T) {
	icon := gradient(8, 8)
	c := New(apps.NewMemoryCatalog(apps.AppInfo{PackageName: "com.example.mail", Name: "Mail", Icon: icon}))

	img, err := c.Resolve(models.SourceIcon, "com.example.mail")
	if err != nil || img != icon {
		t.Fatalf("Resolve icon = %v, %v", img, err)
	}
	if _, err := c.Resolve(models.SourceIcon, "com.example.missing"); !errors.Is(err, ErrAppNotInstalled) {
		t.Fatalf("expected ErrAppNotInstalled, got %v", err)
	}
	for _, kind := range []models.SourceKind{models.SourceColor, models.SourcePicture, models.SourceKind(9)} {
		if _, err := c.Resolve(kind, "com.example.mail"); !errors.Is(err, ErrUnsupportedKind) {
			t.Fatalf("kind %v: expected ErrUnsupportedKind, got %v", kind, err)
		}
	}
}

func TestCompositor_WidgetOperations(t *testing.T) {
	icon := gradient(64, 48)
	c := New(apps.NewMemoryCatalog(apps.AppInfo{PackageName: "com.example.mail", Icon: icon}))
	cfg := &models.WidgetConfig{ID: 3, PackageName: "com.example.mail", Radius: 6}

	if got := c.Background(cfg); got != icon {
		t.Fatalf("Background did not return the raw icon")
	}
	if got := c.Icon(cfg); got != icon {
		t.Fatalf("Icon did not return the raw icon")
	}

	bg := c.WidgetBackground(cfg, 30, 20)
	if bg == nil || bg.Bounds().Size() != image.Pt(30, 20) {
		t.Fatalf("WidgetBackground = %v", bg)
	}
	if c.WidgetBackground(cfg, 0, 20) != nil {
		t.Fatalf("expected nil without a size")
	}

	preview := c.PreviewBackground(cfg)
	if preview == nil || preview.Bounds().Size() != image.Pt(64, 48) {
		t.Fatalf("PreviewBackground should keep the source size, got %v", preview)
	}
}

func TestCompositor_AbsencePropagates(t *testing.T) {
	c := New(apps.NewMemoryCatalog())
	missing := &models.WidgetConfig{ID: 1, PackageName: "com.example.gone"}
	if c.Background(missing) != nil || c.Icon(missing) != nil {
		t.Fatalf("expected nil for an uninstalled app")
	}
	if c.WidgetBackground(missing, 10, 10) != nil || c.PreviewBackground(missing) != nil {
		t.Fatalf("expected nil renders for an uninstalled app")
	}

	unsupported := &models.WidgetConfig{ID: 2, PackageName: "com.example.gone", BackgroundKind: models.SourceColor, IconKind: models.SourcePicture}
	if c.Background(unsupported) != nil || c.Icon(unsupported) != nil {
		t.Fatalf("expected nil for unsupported kinds")
	}
	if c.Background(nil) != nil || c.WidgetBackground(nil, 1, 1) != nil {
		t.Fatalf("expected nil for nil config")
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
