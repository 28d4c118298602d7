// Package state holds the display surfaces that finished widget frames are pushed to.
package state

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"originwidget/models"
)

// Padding is the inset applied around an image on a surface, in pixels.
type Padding struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// BackgroundPadding insets the background by the horizontal and vertical margins.
func BackgroundPadding(cfg *models.WidgetConfig) Padding {
	return Padding{
		Left:   cfg.MarginHorizontal,
		Top:    cfg.MarginVertical,
		Right:  cfg.MarginHorizontal,
		Bottom: cfg.MarginVertical,
	}
}

// IconPadding insets the icon by the icon margin on every side.
func IconPadding(cfg *models.WidgetConfig) Padding {
	return Padding{Left: cfg.MarginIcon, Top: cfg.MarginIcon, Right: cfg.MarginIcon, Bottom: cfg.MarginIcon}
}

// Frame is one finished render handed to a surface.
// A nil image leaves the surface's previous image in place.
type Frame struct {
	Background        *image.NRGBA
	Icon              *image.NRGBA
	BackgroundPadding Padding
	IconPadding       Padding
	ClickTarget       string
}

// Surface is a snapshot of one widget's display state. Images are never
// mutated after being applied, so snapshots share them.
type Surface struct {
	ID                int          `json:"id"`
	Width             int          `json:"width"`
	Height            int          `json:"height"`
	Background        *image.NRGBA `json:"-"`
	Icon              *image.NRGBA `json:"-"`
	BackgroundHash    string       `json:"background_hash,omitempty"`
	IconHash          string       `json:"icon_hash,omitempty"`
	BackgroundPadding Padding      `json:"background_padding"`
	IconPadding       Padding      `json:"icon_padding"`
	ClickTarget       string       `json:"click_target,omitempty"`
	Frames            uint64       `json:"frames"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// HasSize reports whether the host has reported a usable size.
func (s Surface) HasSize() bool {
	return s.Width > 0 && s.Height > 0
}

// Surfaces is the registry of widget surfaces known to the host.
type Surfaces struct {
	mu       sync.RWMutex
	surfaces map[int]*Surface
}

// NewSurfaces returns an empty registry.
func NewSurfaces() *Surfaces {
	return &Surfaces{surfaces: make(map[int]*Surface)}
}

// Register adds the surface if needed and records its reported size.
// A non-positive size keeps the previous one.
func (s *Surfaces) Register(id, width, height int) Surface {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, exists := s.surfaces[id]
	if !exists {
		sf = &Surface{ID: id, UpdatedAt: time.Now()}
		s.surfaces[id] = sf
	}
	if width > 0 && height > 0 {
		sf.Width, sf.Height = width, height
	}
	return *sf
}

// Apply pushes a frame to a registered surface. It returns false when the
// surface was removed, in which case the frame is discarded.
func (s *Surfaces) Apply(id int, f Frame) bool {
	var bgHash, iconHash string
	if f.Background != nil {
		bgHash = contentHash(f.Background)
	}
	if f.Icon != nil {
		iconHash = contentHash(f.Icon)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sf, exists := s.surfaces[id]
	if !exists {
		return false
	}
	if f.Background != nil {
		sf.Background = f.Background
		sf.BackgroundHash = bgHash
	}
	if f.Icon != nil {
		sf.Icon = f.Icon
		sf.IconHash = iconHash
	}
	sf.BackgroundPadding = f.BackgroundPadding
	sf.IconPadding = f.IconPadding
	sf.ClickTarget = f.ClickTarget
	sf.Frames++
	sf.UpdatedAt = time.Now()
	return true
}

// Get returns a snapshot of a surface.
func (s *Surfaces) Get(id int) (Surface, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sf, exists := s.surfaces[id]
	if !exists {
		return Surface{}, false
	}
	return *sf, true
}

// Exists checks whether a surface is registered.
func (s *Surfaces) Exists(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.surfaces[id]
	return exists
}

// Remove unregisters a surface.
func (s *Surfaces) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.surfaces[id]
	delete(s.surfaces, id)
	return exists
}

// IDs returns the registered widget ids in ascending order.
func (s *Surfaces) IDs() []int {
	s.mu.RLock()
	ids := make([]int, 0, len(s.surfaces))
	for id := range s.surfaces {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Ints(ids)
	return ids
}

// Count returns the number of registered surfaces.
func (s *Surfaces) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.surfaces)
}

func contentHash(img *image.NRGBA) string {
	h, _ := blake2b.New(16, nil)
	var dims [8]byte
	b := img.Bounds()
	binary.BigEndian.PutUint32(dims[:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(dims[4:], uint32(b.Dy()))
	h.Write(dims[:])
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[off : off+b.Dx()*4])
	}
	return hex.EncodeToString(h.Sum(nil))
}
