package appink

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Coordinator turns asynchronous interrupt delivery into a write-once flag.
// The device's hardware button combination is wired (by platform integration
// outside this tool) to SIGINT/SIGTERM; the handler does nothing but set the
// flag, so it is safe at any point during rendering or supervision. The
// lifecycle controller is the only party that acts on the flag, from its own
// control flow.
type Coordinator struct {
	cancelled atomic.Bool
	once      sync.Once
	ch        chan os.Signal
}

// NewCoordinator returns a coordinator with the flag cleared. Construct one
// per process at startup; no other global state is permitted.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Install registers the interrupt handler. With no arguments it listens for
// SIGINT and SIGTERM. Installing twice is a no-op.
func (c *Coordinator) Install(signals ...os.Signal) {
	c.once.Do(func() {
		if len(signals) == 0 {
			signals = []os.Signal{unix.SIGINT, unix.SIGTERM}
		}
		c.ch = make(chan os.Signal, 1)
		signal.Notify(c.ch, signals...)
		go func() {
			for range c.ch {
				// Set at most once; repeated interrupts are idempotent.
				c.cancelled.CompareAndSwap(false, true)
			}
		}()
	})
}

// Cancel sets the flag directly, without a signal. Same write-once
// semantics; used by tests and by callers that have their own quit trigger.
func (c *Coordinator) Cancel() {
	c.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether termination has been requested. Cheap,
// non-blocking, and never reverts to false within a process lifetime.
func (c *Coordinator) Cancelled() bool {
	return c.cancelled.Load()
}
