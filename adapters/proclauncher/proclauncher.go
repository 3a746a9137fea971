//go:build linux || android
// +build linux android

// Package proclauncher starts the supervised child via os/exec with the
// caller's stdio inherited unmodified, and exposes its termination through
// a non-blocking poll plus a context-bounded wait.
package proclauncher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"pkt.systems/appink"
	"pkt.systems/appink/port"
)

// Launcher spawns real processes.
type Launcher struct{}

var _ port.Launcher = (*Launcher)(nil)

// New returns a Launcher.
func New() *Launcher {
	return &Launcher{}
}

// Spawn starts path with args. stdin, stdout, and stderr are inherited so
// the child's own terminal or log behavior is untouched. Start failures are
// classified into a SpawnError.
func (l *Launcher) Spawn(path string, args []string) (port.Handle, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, &appink.SpawnError{Path: path, Reason: reasonFor(err), Err: err}
	}
	h := &handle{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		h.status = statusFrom(err, cmd.ProcessState)
		close(h.done)
	}()
	return h, nil
}

type handle struct {
	cmd    *exec.Cmd
	done   chan struct{}
	status port.Status // valid once done is closed
}

func (h *handle) Pid() int {
	return h.cmd.Process.Pid
}

// Poll reports the exit status without blocking.
func (h *handle) Poll() (port.Status, bool) {
	select {
	case <-h.done:
		return h.status, true
	default:
		return port.Status{}, false
	}
}

// Interrupt sends SIGINT, giving the child a chance to restore its own
// state before the grace period runs out.
func (h *handle) Interrupt() error {
	return h.cmd.Process.Signal(unix.SIGINT)
}

// Kill sends SIGKILL.
func (h *handle) Kill() error {
	return h.cmd.Process.Kill()
}

// Wait blocks until the child exits or ctx is done.
func (h *handle) Wait(ctx context.Context) (port.Status, error) {
	select {
	case <-h.done:
		return h.status, nil
	case <-ctx.Done():
		return port.Status{}, ctx.Err()
	}
}

// reasonFor classifies a Start error by unwrapping to the underlying errno
// through os.PathError and exec.Error layers.
func reasonFor(err error) appink.SpawnReason {
	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.ENOENT, unix.ENOTDIR:
			return appink.SpawnNotFound
		case unix.ENOEXEC, unix.EISDIR:
			return appink.SpawnNotExecutable
		case unix.EACCES, unix.EPERM:
			return appink.SpawnPermissionDenied
		}
	}
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return appink.SpawnNotFound
	case errors.Is(err, fs.ErrPermission):
		return appink.SpawnPermissionDenied
	}
	return appink.SpawnUnknown
}

// statusFrom extracts the exit status from the Wait error and process state.
func statusFrom(waitErr error, state *os.ProcessState) port.Status {
	if state == nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ProcessState != nil {
			state = exitErr.ProcessState
		}
	}
	if state == nil {
		return port.Status{Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return port.Status{Code: -1, Signaled: true, Signal: int(ws.Signal())}
	}
	return port.Status{Code: state.ExitCode()}
}
