package appink

import (
	"errors"
	"fmt"
)

var (
	// ErrDevice matches any DeviceError via errors.Is.
	ErrDevice = errors.New("appink: framebuffer device unavailable")
	// ErrRender matches any RenderError via errors.Is.
	ErrRender = errors.New("appink: render failed")
	// ErrSpawn matches any SpawnError via errors.Is.
	ErrSpawn = errors.New("appink: spawn failed")
)

// DeviceError reports that the framebuffer device could not be opened or
// prepared. Fatal; nothing was drawn and no child was touched.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("appink: device %s: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) Is(target error) bool { return target == ErrDevice }

// RenderError reports that frame composition failed (undecodable bitmap,
// unsatisfiable geometry). Fatal; the controller aborts before spawning.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("appink: render: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// SpawnReason classifies why the target executable could not be started.
type SpawnReason int

const (
	SpawnUnknown SpawnReason = iota
	SpawnNotFound
	SpawnNotExecutable
	SpawnPermissionDenied
)

func (r SpawnReason) String() string {
	switch r {
	case SpawnNotFound:
		return "not found"
	case SpawnNotExecutable:
		return "not executable"
	case SpawnPermissionDenied:
		return "permission denied"
	default:
		return "spawn failed"
	}
}

// SpawnError reports that the target could not be started. Fatal; the
// surface is still released so the panel is not left showing a stale
// "running" frame.
type SpawnError struct {
	Path   string
	Reason SpawnReason
	Err    error
}

func (e *SpawnError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("appink: spawn %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }
