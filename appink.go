// Package appink displays a "now running" screen on an e-ink framebuffer
// while it supervises a single external executable. It renders once, spawns
// the child with inherited stdio, and tears down deterministically when the
// child exits on its own or the user requests termination through the
// device's interrupt signal.
package appink

import "pkt.systems/appink/port"

// Process exit codes used by the tool itself. A child's own exit code is
// passed through untouched, so these sentinels let a launcher distinguish
// "child failed" from "appink failed" from "user quit".
const (
	// ExitFailure is returned when the device, the render, or the spawn
	// failed before a child verdict existed. Same convention as timeout(1).
	ExitFailure = 125
	// ExitCancelled is returned when termination was user-requested.
	// 128+SIGINT, so scripts can treat it like an interrupted foreground job.
	ExitCancelled = 130
	// exitSignalBase is added to a terminating signal number when the child
	// was killed by a signal, per the usual shell convention.
	exitSignalBase = 128
)

// OutcomeKind tags how the supervised run ended.
type OutcomeKind int

const (
	// ChildExited means the child terminated on its own with an exit code.
	ChildExited OutcomeKind = iota
	// ChildSignaled means the child was terminated by a signal it did not
	// receive from us.
	ChildSignaled
	// Cancelled means the user requested termination; the child's actual
	// fate (clean exit during grace, killed, or unkillable) does not change
	// the category.
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case ChildExited:
		return "exited"
	case ChildSignaled:
		return "signaled"
	case Cancelled:
		return "cancelled"
	default:
		return "outcome(?)"
	}
}

// Outcome is the final verdict of one supervised run.
type Outcome struct {
	Kind   OutcomeKind
	Code   int // child exit code when Kind is ChildExited
	Signal int // terminating signal when Kind is ChildSignaled
}

// ExitCode maps the outcome onto the process exit code contract.
func (o Outcome) ExitCode() int {
	switch o.Kind {
	case ChildExited:
		return o.Code
	case ChildSignaled:
		return exitSignalBase + o.Signal
	case Cancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}

func outcomeFromStatus(st port.Status) Outcome {
	if st.Signaled {
		return Outcome{Kind: ChildSignaled, Signal: st.Signal}
	}
	return Outcome{Kind: ChildExited, Code: st.Code}
}

// Renderer composes frames onto a surface. Implemented by render.Frame;
// declared here so the controller stays independent of image handling.
type Renderer interface {
	// Render draws the full "now running" frame and issues exactly one full
	// refresh. Called once, before the child is spawned.
	Render(s port.Surface) error
	// Banner draws a short status line during draining using a partial
	// refresh. Best effort; failures are logged by the caller, never fatal.
	Banner(s port.Surface, text string) error
	// Clear restores a blank panel with one full refresh during teardown.
	Clear(s port.Surface) error
}
