package port

import "context"

// Status describes how a child process exited.
type Status struct {
	Code     int // exit code; meaningful only when Signaled is false
	Signaled bool
	Signal   int // terminating signal number when Signaled is true
}

// Launcher abstracts child process creation so the lifecycle controller can
// be exercised against mocks without depending on a specific adapter
// implementation.
type Launcher interface {
	// Spawn starts path with args, inheriting the caller's stdio streams
	// unmodified.
	Spawn(path string, args []string) (Handle, error)
}

// Handle represents one running child.
type Handle interface {
	// Pid reports the child's process id.
	Pid() int
	// Poll reports the exit status without blocking. ok is false while the
	// child is still running.
	Poll() (status Status, ok bool)
	// Interrupt asks the child to terminate gracefully.
	Interrupt() error
	// Kill terminates the child forcefully.
	Kill() error
	// Wait blocks until the child exits or ctx is done. Cancellation of ctx
	// returns ctx.Err() and leaves the child untouched.
	Wait(ctx context.Context) (Status, error)
}
