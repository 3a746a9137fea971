//go:build linux
// +build linux

package fbdev

import (
	"errors"
	"path/filepath"
	"testing"
	"unsafe"

	"pkt.systems/appink"
	"pkt.systems/appink/port"
)

func TestOpenMissingDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fb0")
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected an error for a missing device node")
	}
	if !errors.Is(err, appink.ErrDevice) {
		t.Fatalf("error does not match ErrDevice: %v", err)
	}
	var devErr *appink.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("error is not a *DeviceError: %v", err)
	}
	if devErr.Device != path {
		t.Fatalf("device %q, want %q", devErr.Device, path)
	}
}

func TestOpenNonFramebufferNode(t *testing.T) {
	// /dev/null accepts open but rejects the screeninfo ioctl.
	_, err := Open("/dev/null")
	if !errors.Is(err, appink.ErrDevice) {
		t.Fatalf("expected device error, got %v", err)
	}
}

func TestValidateGeometry(t *testing.T) {
	valid := port.Geometry{Width: 1404, Height: 1872, Stride: 2808, BitsPerPixel: 16}
	if err := validateGeometry(valid); err != nil {
		t.Fatalf("valid geometry rejected: %v", err)
	}
	cases := []port.Geometry{
		{Width: 1404, Height: 1872, Stride: 2808, BitsPerPixel: 12}, // odd depth
		{Width: 0, Height: 1872, Stride: 0, BitsPerPixel: 16},       // zero width
		{Width: 1404, Height: 0, Stride: 2808, BitsPerPixel: 16},    // zero height
		{Width: 1404, Height: 1872, Stride: 1404, BitsPerPixel: 16}, // short stride
	}
	for i, g := range cases {
		if err := validateGeometry(g); err == nil {
			t.Errorf("case %d: invalid geometry %+v accepted", i, g)
		}
	}
}

func TestPackPixelRGB565(t *testing.T) {
	var buf [2]byte
	packPixel(buf[:], 16, 0xff, 0xff, 0xff)
	if buf[0] != 0xff || buf[1] != 0xff {
		t.Fatalf("white = %02x%02x, want ffff", buf[1], buf[0])
	}
	packPixel(buf[:], 16, 0, 0, 0)
	if buf[0] != 0 || buf[1] != 0 {
		t.Fatalf("black = %02x%02x, want 0000", buf[1], buf[0])
	}
	packPixel(buf[:], 16, 0xff, 0, 0)
	if v := uint16(buf[0]) | uint16(buf[1])<<8; v != 0xf800 {
		t.Fatalf("red = %04x, want f800", v)
	}
	packPixel(buf[:], 16, 0, 0xff, 0)
	if v := uint16(buf[0]) | uint16(buf[1])<<8; v != 0x07e0 {
		t.Fatalf("green = %04x, want 07e0", v)
	}
	packPixel(buf[:], 16, 0, 0, 0xff)
	if v := uint16(buf[0]) | uint16(buf[1])<<8; v != 0x001f {
		t.Fatalf("blue = %04x, want 001f", v)
	}
}

func TestPackPixel32AndGray(t *testing.T) {
	var buf [4]byte
	packPixel(buf[:], 32, 0x11, 0x22, 0x33)
	if buf[0] != 0x33 || buf[1] != 0x22 || buf[2] != 0x11 || buf[3] != 0xff {
		t.Fatalf("xrgb = % x", buf)
	}
	packPixel(buf[:1], 8, 0xff, 0xff, 0xff)
	if buf[0] != 0xff {
		t.Fatalf("white gray = %02x, want ff", buf[0])
	}
	packPixel(buf[:1], 8, 0, 0, 0)
	if buf[0] != 0 {
		t.Fatalf("black gray = %02x, want 00", buf[0])
	}
}

// The ioctl argument structs must match the kernel ABI byte for byte.
// fb_fix_screeninfo carries two unsigned longs, so its size follows the
// word width; the other structs are fixed-width on both.
func TestKernelStructSizes(t *testing.T) {
	if size := unsafe.Sizeof(fbVarScreeninfo{}); size != 160 {
		t.Fatalf("fb_var_screeninfo size %d, want 160", size)
	}
	wantFix := uintptr(68)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		wantFix = 80
	}
	if size := unsafe.Sizeof(fbFixScreeninfo{}); size != wantFix {
		t.Fatalf("fb_fix_screeninfo size %d, want %d", size, wantFix)
	}
	if size := unsafe.Sizeof(mxcfbUpdateData{}); size != 72 {
		t.Fatalf("mxcfb_update_data size %d, want 72", size)
	}
}
