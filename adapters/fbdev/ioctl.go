//go:build linux
// +build linux

package fbdev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Framebuffer ioctls from <linux/fb.h>.
const (
	fbioGetVScreeninfo = 0x4600
	fbioGetFScreeninfo = 0x4602
)

// EPDC update ioctls from <linux/mxcfb.h>.
const (
	mxcfbSendUpdate            = 0x4048462e // _IOW('F', 0x2E, struct mxcfb_update_data)
	mxcfbWaitForUpdateComplete = 0xc004462f // _IOWR('F', 0x2F, u32)
)

// Waveform and update parameters for the EPDC.
const (
	waveformGC16  = 2 // full quality, flickers
	waveformGLR16 = 4 // fast, lower quality

	updateModePartial = 0
	updateModeFull    = 1

	tempUseRemarkableDraw = 0x0018

	ditherPassthrough = 0x0
	ditherRemarkable  = 0x0300
)

type fbBitfield struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

// fbVarScreeninfo mirrors struct fb_var_screeninfo.
type fbVarScreeninfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          fbBitfield
	Green        fbBitfield
	Blue         fbBitfield
	Transp       fbBitfield
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HSyncLen     uint32
	VSyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// fbFixScreeninfo mirrors struct fb_fix_screeninfo.
type fbFixScreeninfo struct {
	ID         [16]byte
	SmemStart  uintptr
	SmemLen    uint32
	Type       uint32
	TypeAux    uint32
	Visual     uint32
	XPanStep   uint16
	YPanStep   uint16
	YWrapStep  uint16
	LineLength uint32
	MMIOStart  uintptr
	MMIOLen    uint32
	Accel      uint32
	Caps       uint16
	Reserved   [2]uint16
}

// mxcfbRect mirrors struct mxcfb_rect.
type mxcfbRect struct {
	Top    uint32
	Left   uint32
	Width  uint32
	Height uint32
}

type mxcfbAltBufferData struct {
	PhysAddr        uint32
	Width           uint32
	Height          uint32
	AltUpdateRegion mxcfbRect
}

// mxcfbUpdateData mirrors struct mxcfb_update_data.
type mxcfbUpdateData struct {
	UpdateRegion  mxcfbRect
	WaveformMode  uint32
	UpdateMode    uint32
	UpdateMarker  uint32
	Temp          int32
	Flags         uint32
	DitherMode    int32
	QuantBit      int32
	AltBufferData mxcfbAltBufferData
}

func ioctlPtr(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// packPixel writes one pixel in the panel's native format. dst must have at
// least bpp/8 bytes.
func packPixel(dst []byte, bpp int, r, g, b uint8) {
	switch bpp {
	case 32:
		dst[0] = b
		dst[1] = g
		dst[2] = r
		dst[3] = 0xff
	case 24:
		dst[0] = b
		dst[1] = g
		dst[2] = r
	case 16:
		v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		dst[0] = byte(v)
		dst[1] = byte(v >> 8)
	case 8:
		dst[0] = uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
	}
}
