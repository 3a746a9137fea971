// Package mocklauncher provides a scripted Launcher for exercising the
// lifecycle controller without real processes.
package mocklauncher

import (
	"context"
	"slices"
	"sync"

	"pkt.systems/appink/port"
)

// Behavior represents a single spawn path for the mock launcher.
type Behavior func(path string, args []string) (port.Handle, error)

// Launcher is a thread-safe mock implementation of port.Launcher.
type Launcher struct {
	mu        sync.Mutex
	behaviors []Behavior
	Calls     int
	Paths     []string
	Args      [][]string
}

var _ port.Launcher = (*Launcher)(nil)

// New constructs a Launcher that will invoke behaviors sequentially for each
// call.
func New(behaviors ...Behavior) *Launcher {
	return &Launcher{behaviors: slices.Clone(behaviors)}
}

// Spawn records the call metadata and dispatches to the next behavior.
func (l *Launcher) Spawn(path string, args []string) (port.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Calls++
	l.Paths = append(l.Paths, path)
	l.Args = append(l.Args, slices.Clone(args))

	if len(l.behaviors) == 0 {
		return NewHandle(1), nil
	}
	behavior := l.behaviors[0]
	l.behaviors = l.behaviors[1:]
	return behavior(path, args)
}

// Remaining returns the number of queued behaviors not yet consumed.
func (l *Launcher) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.behaviors)
}

// Handle is a scripted child. Tests drive it by calling Exit, or by setting
// OnInterrupt/OnKill hooks before handing it to the controller.
type Handle struct {
	mu         sync.Mutex
	pid        int
	done       chan struct{}
	status     port.Status
	exited     bool
	Interrupts int
	Kills      int

	// OnInterrupt and OnKill run after the call is recorded. Either may
	// call Exit to simulate the child reacting to the signal.
	OnInterrupt func(h *Handle)
	OnKill      func(h *Handle)
}

var _ port.Handle = (*Handle)(nil)

// NewHandle returns a running scripted child with the given pid.
func NewHandle(pid int) *Handle {
	return &Handle{pid: pid, done: make(chan struct{})}
}

// Exit marks the child as exited with the given status. Safe to call more
// than once; only the first call counts.
func (h *Handle) Exit(status port.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exited {
		return
	}
	h.exited = true
	h.status = status
	close(h.done)
}

func (h *Handle) Pid() int { return h.pid }

func (h *Handle) Poll() (port.Status, bool) {
	select {
	case <-h.done:
		return h.status, true
	default:
		return port.Status{}, false
	}
}

func (h *Handle) Interrupt() error {
	h.mu.Lock()
	h.Interrupts++
	hook := h.OnInterrupt
	h.mu.Unlock()
	if hook != nil {
		hook(h)
	}
	return nil
}

func (h *Handle) Kill() error {
	h.mu.Lock()
	h.Kills++
	hook := h.OnKill
	h.mu.Unlock()
	if hook != nil {
		hook(h)
	}
	return nil
}

func (h *Handle) Wait(ctx context.Context) (port.Status, error) {
	select {
	case <-h.done:
		return h.status, nil
	case <-ctx.Done():
		return port.Status{}, ctx.Err()
	}
}
