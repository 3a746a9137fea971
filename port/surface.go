package port

import (
	"errors"
	"image"
)

// ErrOutOfBounds is returned by Surface.Blit and Surface.Refresh when the
// requested region does not fit inside the surface geometry.
var ErrOutOfBounds = errors.New("region out of bounds")

// RefreshMode selects how the panel redraws a region. Full refresh is slow
// and flickers but resets e-ink ghosting; partial refresh is fast and lower
// quality. The mode is caller policy, the surface only executes it.
type RefreshMode int

const (
	RefreshFull RefreshMode = iota
	RefreshPartial
)

func (m RefreshMode) String() string {
	switch m {
	case RefreshFull:
		return "full"
	case RefreshPartial:
		return "partial"
	default:
		return "refreshmode(?)"
	}
}

// Geometry describes the pixel layout of a mapped display. It is fixed for
// the lifetime of the surface. Stride is in bytes and is at least
// Width * BitsPerPixel / 8.
type Geometry struct {
	Width        int
	Height       int
	Stride       int
	BitsPerPixel int
}

// Bounds returns the geometry as an image rectangle anchored at the origin.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Surface abstracts display memory so rendering can target real hardware or
// an in-memory buffer without depending on a specific adapter implementation.
type Surface interface {
	// Geometry reports the fixed pixel layout of the display.
	Geometry() Geometry
	// Blit copies src into the region r of display memory. The region must
	// lie within Geometry().Bounds().
	Blit(r image.Rectangle, src image.Image) error
	// Refresh asks the hardware to redraw region r using the given mode.
	Refresh(r image.Rectangle, mode RefreshMode) error
	// Close releases the mapping. It must be called on every exit path;
	// a leaked mapping is a defect, not a shutdown shortcut.
	Close() error
}
