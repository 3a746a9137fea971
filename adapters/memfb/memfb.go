// Package memfb is an in-memory Surface used by tests and by --dry-run on
// machines without a panel. It records every operation so callers can assert
// ordering and refresh policy.
package memfb

import (
	"errors"
	"image"
	"image/draw"
	"sync"

	"pkt.systems/appink/port"
)

// ErrClosed is returned when the surface is used after Close.
var ErrClosed = errors.New("memfb: surface closed")

// Refresh records one refresh call.
type Refresh struct {
	Region image.Rectangle
	Mode   port.RefreshMode
}

// Surface is a thread-safe in-memory implementation of port.Surface.
type Surface struct {
	mu   sync.Mutex
	geom port.Geometry

	// Frame holds the composited pixels after each Blit.
	Frame *image.RGBA
	// Blits, Refreshes, and Ops record the call history. Ops contains
	// "blit", "refresh full", "refresh partial", and "close" in call order.
	Blits     []image.Rectangle
	Refreshes []Refresh
	Ops       []string
	Closed    bool

	// BlitErr and RefreshErr let tests inject failures.
	BlitErr    error
	RefreshErr error
}

var _ port.Surface = (*Surface)(nil)

// New constructs a surface with a 32 bpp geometry of the given size.
func New(width, height int) *Surface {
	return &Surface{
		geom: port.Geometry{
			Width:        width,
			Height:       height,
			Stride:       width * 4,
			BitsPerPixel: 32,
		},
		Frame: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *Surface) Geometry() port.Geometry {
	return s.geom
}

// Blit copies src into region r of the frame, enforcing bounds the way the
// hardware adapter does.
func (s *Surface) Blit(r image.Rectangle, src image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	if s.BlitErr != nil {
		return s.BlitErr
	}
	if !r.In(s.geom.Bounds()) {
		return port.ErrOutOfBounds
	}
	draw.Draw(s.Frame, r, src, src.Bounds().Min, draw.Src)
	s.Blits = append(s.Blits, r)
	s.Ops = append(s.Ops, "blit")
	return nil
}

func (s *Surface) Refresh(r image.Rectangle, mode port.RefreshMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	if s.RefreshErr != nil {
		return s.RefreshErr
	}
	if !r.In(s.geom.Bounds()) {
		return port.ErrOutOfBounds
	}
	s.Refreshes = append(s.Refreshes, Refresh{Region: r, Mode: mode})
	s.Ops = append(s.Ops, "refresh "+mode.String())
	return nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	s.Closed = true
	s.Ops = append(s.Ops, "close")
	return nil
}
