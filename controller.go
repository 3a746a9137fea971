package appink

import (
	"context"
	"log/slog"
	"time"

	"pkt.systems/appink/port"
)

// Default timings for the supervision loop. Poll keeps quit latency low
// without busy-spinning; grace bounds how long a cancelled child may take to
// leave on its own before it is killed.
const (
	DefaultPollInterval = 150 * time.Millisecond
	DefaultGracePeriod  = 3 * time.Second

	// After a forced kill the child is reaped with this bound so a
	// misbehaving child cannot hang the controller forever.
	finalReapTimeout = time.Second
)

// State identifies where the controller is in its run.
type State int

const (
	StateRendering State = iota
	StateRunning
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRendering:
		return "rendering"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "state(?)"
	}
}

// Controller owns the run: render once, spawn the child, supervise until it
// exits or cancellation is requested, then tear down. Single logical thread
// of control; the only state shared with another execution context is the
// coordinator's flag.
type Controller struct {
	Surface  port.Surface
	Launcher port.Launcher
	Renderer Renderer
	Signals  *Coordinator

	// PollInterval and GracePeriod fall back to the defaults when zero.
	PollInterval time.Duration
	GracePeriod  time.Duration

	Log *slog.Logger
}

// Run executes the full lifecycle for one child and returns its outcome. The
// surface is closed on every return path, including render and spawn
// failures; rendering always completes before the child is spawned. A nil
// error is returned together with a valid Outcome; a non-nil error means no
// child verdict exists and the process should exit with ExitFailure.
func (c *Controller) Run(ctx context.Context, path string, args []string) (Outcome, error) {
	log := c.logger()
	rendered := false
	defer func() {
		if rendered {
			if err := c.Renderer.Clear(c.Surface); err != nil {
				log.Warn("teardown clear failed", "error", err)
			}
		}
		if err := c.Surface.Close(); err != nil {
			log.Warn("surface close failed", "error", err)
		}
	}()

	log.Debug("state transition", "state", StateRendering)
	if err := c.Renderer.Render(c.Surface); err != nil {
		return Outcome{}, &RenderError{Err: err}
	}
	rendered = true

	log.Debug("state transition", "state", StateRunning)
	log.Info("starting process", "path", path, "args", args)
	handle, err := c.Launcher.Spawn(path, args)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("process started", "pid", handle.Pid())

	outcome, cancelled := c.supervise(ctx, handle)
	if cancelled {
		outcome = c.drain(handle, path)
	}

	log.Debug("state transition", "state", StateTerminated)
	log.Info("run finished", "outcome", outcome.Kind, "exit_code", outcome.ExitCode())
	return outcome, nil
}

// supervise polls until the child exits or cancellation is observed. It
// sleeps PollInterval between iterations; the loop is cooperative and only
// guarantees that one of the two conditions is eventually observed.
func (c *Controller) supervise(ctx context.Context, handle port.Handle) (Outcome, bool) {
	log := c.logger()
	interval := c.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		if st, ok := handle.Poll(); ok {
			outcome := outcomeFromStatus(st)
			logChildStatus(log, st)
			return outcome, false
		}
		if c.Signals != nil && c.Signals.Cancelled() {
			log.Info("termination requested by user")
			return Outcome{}, true
		}
		if ctx.Err() != nil {
			log.Info("termination requested by caller", "cause", ctx.Err())
			return Outcome{}, true
		}
		time.Sleep(interval)
	}
}

// drain implements the Draining state for a cancelled run: ask the child to
// leave, wait out the grace period, then kill. The child's actual status is
// logged for diagnosis but the outcome category stays Cancelled either way.
func (c *Controller) drain(handle port.Handle, path string) Outcome {
	log := c.logger()
	log.Debug("state transition", "state", StateDraining)

	if err := c.Renderer.Banner(c.Surface, "Killing process..."); err != nil {
		log.Warn("drain banner failed", "error", err)
	}

	grace := c.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	log.Info("interrupting process", "path", path, "grace", grace)
	if err := handle.Interrupt(); err != nil {
		log.Warn("interrupt failed", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if st, err := handle.Wait(ctx); err == nil {
		logChildStatus(log, st)
		return Outcome{Kind: Cancelled}
	}

	log.Warn("grace period elapsed, killing process", "path", path)
	if err := handle.Kill(); err != nil {
		log.Warn("kill failed", "error", err)
	}
	reapCtx, reapCancel := context.WithTimeout(context.Background(), finalReapTimeout)
	defer reapCancel()
	if st, err := handle.Wait(reapCtx); err == nil {
		logChildStatus(log, st)
	} else {
		log.Warn("process did not exit after kill, reporting terminated by request")
	}
	return Outcome{Kind: Cancelled}
}

func (c *Controller) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

func logChildStatus(log *slog.Logger, st port.Status) {
	switch {
	case st.Signaled:
		log.Warn("process terminated by signal", "signal", st.Signal)
	case st.Code == 0:
		log.Info("process exited", "code", 0)
	default:
		log.Warn("process exited", "code", st.Code)
	}
}
