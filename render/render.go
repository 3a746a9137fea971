// Package render composes "now running" frames and pushes them to a display
// surface. Layout follows the device conventions of the target tablets:
// white background, black text, icon above label, quit hint along the
// bottom edge.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"pkt.systems/appink/port"
)

// MinIconSize is the smallest accepted icon square. Anything below this is
// unreadable on the panel.
const MinIconSize = 50

// Layout constants, in pixels on the panel.
const (
	labelFontPx    = 50
	subtitleFontPx = 25
	hintFontPx     = 35
	bannerFontPx   = 60

	textMargin         = 60  // horizontal margin bounding label width
	labelGapPx         = 55  // icon bottom to label baseline
	subtitleGapPx      = 35  // label baseline to subtitle baseline
	hintBaselineUp     = 30  // hint baseline distance from bottom edge
	bannerBaselineUp   = 300 // banner baseline distance from bottom edge
	bannerBandHeightPx = 90
)

const subtitleText = "is running"

// quitHint tells the user how to trigger the interrupt signal. The actual
// key-code mapping is platform integration outside this tool.
const quitHint = "Hold power and press the second button to quit."

var (
	errNilImage     = errors.New("render: nil image")
	errEmptyLabel   = errors.New("render: empty label")
	errIconTooSmall = fmt.Errorf("render: icon size below minimum %d", MinIconSize)
)

// Request describes what to draw. Exactly one layout is active: a custom
// full-bleed image, or icon-and-label (icon optional). Construct once before
// the child is spawned; a Request is immutable afterwards.
type Request struct {
	label    string
	icon     image.Image
	iconSize int
	custom   image.Image
}

// NewIconLabel builds a request for the icon-plus-label layout. icon may be
// nil, which selects the name-only layout.
func NewIconLabel(label string, icon image.Image, iconSize int) (*Request, error) {
	if label == "" {
		return nil, errEmptyLabel
	}
	if icon != nil && iconSize < MinIconSize {
		return nil, errIconTooSmall
	}
	return &Request{label: label, icon: icon, iconSize: iconSize}, nil
}

// NewCustomImage builds a request that scales img to exactly fill the
// display. Aspect ratio is not preserved: full-bleed fill is the contract,
// so the caller keeps total layout control.
func NewCustomImage(img image.Image) (*Request, error) {
	if img == nil {
		return nil, errNilImage
	}
	return &Request{custom: img}, nil
}

// Custom reports whether the request is the full-bleed variant.
func (r *Request) Custom() bool { return r.custom != nil }

// Frame renders a Request. It implements appink.Renderer.
type Frame struct {
	req *Request
}

// NewFrame wraps req for rendering.
func NewFrame(req *Request) *Frame {
	return &Frame{req: req}
}

// Render composes the frame into an off-screen buffer, blits it, and issues
// exactly one full refresh to establish a clean e-ink baseline.
func (f *Frame) Render(s port.Surface) error {
	geom := s.Geometry()
	if geom.Width <= 0 || geom.Height <= 0 {
		return fmt.Errorf("render: zero-sized display %dx%d", geom.Width, geom.Height)
	}
	canvas := image.NewRGBA(geom.Bounds())
	// White background first; compositing with draw.Over then flattens any
	// icon transparency, which e-ink would otherwise show as black garbage.
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if f.req.custom != nil {
		scaleFull(canvas, f.req.custom)
	} else if err := f.composeIconLabel(canvas, geom); err != nil {
		return err
	}

	if err := s.Blit(geom.Bounds(), canvas); err != nil {
		return err
	}
	return s.Refresh(geom.Bounds(), port.RefreshFull)
}

func (f *Frame) composeIconLabel(canvas *image.RGBA, geom port.Geometry) error {
	labelFace, err := face(labelFontPx)
	if err != nil {
		return err
	}
	subtitleFace, err := face(subtitleFontPx)
	if err != nil {
		return err
	}
	maxWidth := geom.Width - 2*textMargin
	if maxWidth <= 0 {
		return fmt.Errorf("render: display too narrow for text: %d px", geom.Width)
	}

	labelBaseline := geom.Height / 2
	if f.req.icon != nil {
		size := f.req.iconSize
		if size > geom.Width || size > geom.Height*3/5 {
			return fmt.Errorf("render: icon size %d exceeds display %dx%d", size, geom.Width, geom.Height)
		}
		icon := scalePadded(f.req.icon, size)
		top := geom.Height*2/5 - size/2
		if top < textMargin {
			top = textMargin
		}
		left := (geom.Width - size) / 2
		draw.Draw(canvas, image.Rect(left, top, left+size, top+size), icon, image.Point{}, draw.Over)
		labelBaseline = top + size + labelGapPx
	}

	rect := drawText(canvas, f.req.label, labelFace, labelBaseline, maxWidth)
	drawText(canvas, subtitleText, subtitleFace, rect.Max.Y+subtitleGapPx, maxWidth)

	hintFace, err := face(hintFontPx)
	if err != nil {
		return err
	}
	drawText(canvas, quitHint, hintFace, geom.Height-hintBaselineUp, maxWidth)
	return nil
}

// Banner draws a short status line near the bottom of the panel with a
// partial refresh. Used while draining; never during the render phase.
func (f *Frame) Banner(s port.Surface, text string) error {
	geom := s.Geometry()
	bannerFace, err := face(bannerFontPx)
	if err != nil {
		return err
	}
	band := image.NewRGBA(image.Rect(0, 0, geom.Width, bannerBandHeightPx))
	draw.Draw(band, band.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawText(band, text, bannerFace, bannerBandHeightPx-20, geom.Width-2*textMargin)

	top := geom.Height - bannerBaselineUp - bannerBandHeightPx
	if top < 0 {
		top = 0
	}
	region := image.Rect(0, top, geom.Width, top+bannerBandHeightPx)
	if err := s.Blit(region, band); err != nil {
		return err
	}
	return s.Refresh(region, port.RefreshPartial)
}

// Clear restores a blank white panel with one full refresh, so the device
// is not left showing a stale "running" frame after teardown.
func (f *Frame) Clear(s port.Surface) error {
	geom := s.Geometry()
	blank := image.NewRGBA(geom.Bounds())
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if err := s.Blit(geom.Bounds(), blank); err != nil {
		return err
	}
	return s.Refresh(geom.Bounds(), port.RefreshFull)
}
