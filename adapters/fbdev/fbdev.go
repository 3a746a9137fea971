//go:build linux
// +build linux

// Package fbdev maps a Linux framebuffer device and drives e-ink refreshes
// through the mxcfb update ioctl. On panels without an EPDC (no mxcfb
// support) refresh degrades to a no-op, since writes to mapped memory are
// already visible.
package fbdev

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"pkt.systems/appink"
	"pkt.systems/appink/port"
)

// DefaultDevice is the usual framebuffer node on the target tablets.
const DefaultDevice = "/dev/fb0"

// ErrClosed is returned when the surface is used after Close.
var ErrClosed = errors.New("fbdev: surface closed")

// Surface owns the mapped framebuffer memory for the process lifetime.
type Surface struct {
	file   *os.File
	mem    []byte
	geom   port.Geometry
	epd    atomic.Bool // mxcfb update ioctl answered; cleared on ENOTTY
	marker atomic.Uint32
}

var _ port.Surface = (*Surface)(nil)

// Open maps the display memory of device and reads its geometry. It fails
// with a DeviceError when the node is absent, not a framebuffer, or has an
// unsupported pixel format.
func Open(device string) (*Surface, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, &appink.DeviceError{Device: device, Err: err}
	}
	var vinfo fbVarScreeninfo
	if err := ioctlPtr(f.Fd(), fbioGetVScreeninfo, unsafe.Pointer(&vinfo)); err != nil {
		f.Close()
		return nil, &appink.DeviceError{Device: device, Err: fmt.Errorf("FBIOGET_VSCREENINFO: %w", err)}
	}
	var finfo fbFixScreeninfo
	if err := ioctlPtr(f.Fd(), fbioGetFScreeninfo, unsafe.Pointer(&finfo)); err != nil {
		f.Close()
		return nil, &appink.DeviceError{Device: device, Err: fmt.Errorf("FBIOGET_FSCREENINFO: %w", err)}
	}
	geom := port.Geometry{
		Width:        int(vinfo.XRes),
		Height:       int(vinfo.YRes),
		Stride:       int(finfo.LineLength),
		BitsPerPixel: int(vinfo.BitsPerPixel),
	}
	if err := validateGeometry(geom); err != nil {
		f.Close()
		return nil, &appink.DeviceError{Device: device, Err: err}
	}
	size := int(finfo.SmemLen)
	if size < geom.Stride*geom.Height {
		size = geom.Stride * geom.Height
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, &appink.DeviceError{Device: device, Err: fmt.Errorf("mmap %d bytes: %w", size, err)}
	}
	s := &Surface{file: f, mem: mem, geom: geom}
	s.epd.Store(true)
	return s, nil
}

func validateGeometry(g port.Geometry) error {
	switch g.BitsPerPixel {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported depth %d bpp", g.BitsPerPixel)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("zero-sized display %dx%d", g.Width, g.Height)
	}
	if g.Stride < g.Width*g.BitsPerPixel/8 {
		return fmt.Errorf("stride %d shorter than row of %d pixels at %d bpp", g.Stride, g.Width, g.BitsPerPixel)
	}
	return nil
}

func (s *Surface) Geometry() port.Geometry {
	return s.geom
}

// Blit packs src into the mapped memory at region r, converting to the
// panel's pixel format row by row.
func (s *Surface) Blit(r image.Rectangle, src image.Image) error {
	if s.mem == nil {
		return ErrClosed
	}
	if !r.In(s.geom.Bounds()) {
		return port.ErrOutOfBounds
	}
	bytesPP := s.geom.BitsPerPixel / 8
	off := src.Bounds().Min
	for y := 0; y < r.Dy(); y++ {
		row := s.mem[(r.Min.Y+y)*s.geom.Stride+r.Min.X*bytesPP:]
		for x := 0; x < r.Dx(); x++ {
			cr, cg, cb, _ := src.At(off.X+x, off.Y+y).RGBA()
			packPixel(row[x*bytesPP:], s.geom.BitsPerPixel, uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
		}
	}
	return nil
}

// Refresh issues an mxcfb update for region r. Full refreshes use the GC16
// waveform and block until the panel acknowledges; partial refreshes use
// GLR16 asynchronously. When the driver rejects the ioctl with ENOTTY the
// panel is not an EPD and refresh becomes a no-op.
func (s *Surface) Refresh(r image.Rectangle, mode port.RefreshMode) error {
	if s.mem == nil {
		return ErrClosed
	}
	if !r.In(s.geom.Bounds()) {
		return port.ErrOutOfBounds
	}
	if !s.epd.Load() {
		return nil
	}
	marker := s.marker.Add(1)
	update := mxcfbUpdateData{
		UpdateRegion: mxcfbRect{
			Top:    uint32(r.Min.Y),
			Left:   uint32(r.Min.X),
			Width:  uint32(r.Dx()),
			Height: uint32(r.Dy()),
		},
		UpdateMarker: marker,
		Temp:         tempUseRemarkableDraw,
	}
	wait := false
	switch mode {
	case port.RefreshFull:
		update.WaveformMode = waveformGC16
		update.UpdateMode = updateModeFull
		update.DitherMode = ditherRemarkable
		wait = true
	default:
		update.WaveformMode = waveformGLR16
		update.UpdateMode = updateModePartial
		update.DitherMode = ditherPassthrough
	}
	if err := ioctlPtr(s.file.Fd(), mxcfbSendUpdate, unsafe.Pointer(&update)); err != nil {
		if errors.Is(err, unix.ENOTTY) {
			s.epd.Store(false)
			return nil
		}
		return fmt.Errorf("fbdev: MXCFB_SEND_UPDATE: %w", err)
	}
	if wait {
		// Best effort: older EPDC drivers reject the wait ioctl.
		m := marker
		_ = ioctlPtr(s.file.Fd(), mxcfbWaitForUpdateComplete, unsafe.Pointer(&m))
	}
	return nil
}

// Close unmaps the display memory and closes the device node. Idempotent.
func (s *Surface) Close() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	err := unix.Munmap(mem)
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
