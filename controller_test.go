package appink

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"pkt.systems/appink/adapters/memfb"
	"pkt.systems/appink/adapters/mocklauncher"
	"pkt.systems/appink/port"
)

// fakeRenderer draws through the surface so op ordering is recorded, and
// counts calls so tests can assert the render-before-spawn invariant.
type fakeRenderer struct {
	renderErr error
	renders   int
	banners   int
	clears    int
}

func (f *fakeRenderer) Render(s port.Surface) error {
	f.renders++
	if f.renderErr != nil {
		return f.renderErr
	}
	full := s.Geometry().Bounds()
	if err := s.Blit(full, image.NewRGBA(full)); err != nil {
		return err
	}
	return s.Refresh(full, port.RefreshFull)
}

func (f *fakeRenderer) Banner(s port.Surface, text string) error {
	f.banners++
	region := image.Rect(0, 0, s.Geometry().Width, 10)
	if err := s.Blit(region, image.NewRGBA(region)); err != nil {
		return err
	}
	return s.Refresh(region, port.RefreshPartial)
}

func (f *fakeRenderer) Clear(s port.Surface) error {
	f.clears++
	full := s.Geometry().Bounds()
	if err := s.Blit(full, image.NewRGBA(full)); err != nil {
		return err
	}
	return s.Refresh(full, port.RefreshFull)
}

func newTestController(surface *memfb.Surface, launcher *mocklauncher.Launcher, renderer *fakeRenderer, signals *Coordinator) *Controller {
	return &Controller{
		Surface:      surface,
		Launcher:     launcher,
		Renderer:     renderer,
		Signals:      signals,
		PollInterval: time.Millisecond,
		GracePeriod:  50 * time.Millisecond,
	}
}

func TestRunChildExitsCleanly(t *testing.T) {
	surface := memfb.New(100, 100)
	renderer := &fakeRenderer{}
	handle := mocklauncher.NewHandle(42)
	launcher := mocklauncher.New(func(path string, args []string) (port.Handle, error) {
		if renderer.renders != 1 {
			t.Errorf("spawn before render: renders=%d", renderer.renders)
		}
		return handle, nil
	})
	time.AfterFunc(20*time.Millisecond, func() { handle.Exit(port.Status{Code: 0}) })

	c := newTestController(surface, launcher, renderer, NewCoordinator())
	outcome, err := c.Run(context.Background(), "/bin/true", nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != ChildExited || outcome.ExitCode() != 0 {
		t.Fatalf("unexpected outcome %v exit code %d", outcome.Kind, outcome.ExitCode())
	}
	if launcher.Calls != 1 {
		t.Fatalf("expected 1 spawn, got %d", launcher.Calls)
	}
	if !surface.Closed {
		t.Fatal("surface not closed")
	}
	if surface.Ops[len(surface.Ops)-1] != "close" {
		t.Fatalf("close was not the last surface op: %v", surface.Ops)
	}
	if renderer.clears != 1 {
		t.Fatalf("expected 1 teardown clear, got %d", renderer.clears)
	}
}

func TestRunPropagatesChildExitCode(t *testing.T) {
	surface := memfb.New(100, 100)
	handle := mocklauncher.NewHandle(1)
	handle.Exit(port.Status{Code: 7})
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })

	c := newTestController(surface, launcher, &fakeRenderer{}, NewCoordinator())
	outcome, err := c.Run(context.Background(), "/bin/false", nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != ChildExited || outcome.ExitCode() != 7 {
		t.Fatalf("got kind %v code %d, want exited 7", outcome.Kind, outcome.ExitCode())
	}
}

func TestRunReportsSignaledChild(t *testing.T) {
	surface := memfb.New(100, 100)
	handle := mocklauncher.NewHandle(1)
	handle.Exit(port.Status{Signaled: true, Signal: 9})
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })

	c := newTestController(surface, launcher, &fakeRenderer{}, NewCoordinator())
	outcome, err := c.Run(context.Background(), "/bin/cat", nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != ChildSignaled || outcome.ExitCode() != 137 {
		t.Fatalf("got kind %v code %d, want signaled 137", outcome.Kind, outcome.ExitCode())
	}
}

func TestRunRenderErrorAbortsBeforeSpawn(t *testing.T) {
	surface := memfb.New(100, 100)
	renderer := &fakeRenderer{renderErr: errors.New("bad bitmap")}
	launcher := mocklauncher.New()

	c := newTestController(surface, launcher, renderer, NewCoordinator())
	_, err := c.Run(context.Background(), "/bin/true", nil)
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if launcher.Calls != 0 {
		t.Fatalf("child was spawned after a failed render: %d calls", launcher.Calls)
	}
	if !surface.Closed {
		t.Fatal("surface not closed after render failure")
	}
	if renderer.clears != 0 {
		t.Fatal("teardown clear ran although nothing was drawn")
	}
}

func TestRunSpawnErrorReleasesSurface(t *testing.T) {
	surface := memfb.New(100, 100)
	spawnErr := &SpawnError{Path: "/missing", Reason: SpawnNotFound, Err: errors.New("no such file")}
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return nil, spawnErr })

	c := newTestController(surface, launcher, &fakeRenderer{}, NewCoordinator())
	_, err := c.Run(context.Background(), "/missing", nil)
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected spawn error, got %v", err)
	}
	if !surface.Closed {
		t.Fatal("surface not closed after spawn failure")
	}
	if surface.Ops[len(surface.Ops)-1] != "close" {
		t.Fatalf("close was not the last surface op: %v", surface.Ops)
	}
}

func TestRunCancellationInterruptsChild(t *testing.T) {
	surface := memfb.New(100, 100)
	renderer := &fakeRenderer{}
	handle := mocklauncher.NewHandle(1)
	handle.OnInterrupt = func(h *mocklauncher.Handle) {
		h.Exit(port.Status{Signaled: true, Signal: 2})
	}
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })
	signals := NewCoordinator()
	signals.Cancel()

	c := newTestController(surface, launcher, renderer, signals)
	outcome, err := c.Run(context.Background(), "/bin/sleep", []string{"30"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != Cancelled || outcome.ExitCode() != ExitCancelled {
		t.Fatalf("got kind %v code %d, want cancelled %d", outcome.Kind, outcome.ExitCode(), ExitCancelled)
	}
	if handle.Interrupts != 1 {
		t.Fatalf("expected 1 interrupt, got %d", handle.Interrupts)
	}
	if handle.Kills != 0 {
		t.Fatalf("kill issued although the child left during grace: %d", handle.Kills)
	}
	if renderer.banners != 1 {
		t.Fatalf("expected 1 drain banner, got %d", renderer.banners)
	}
	if !surface.Closed || surface.Ops[len(surface.Ops)-1] != "close" {
		t.Fatalf("surface teardown wrong: closed=%v ops=%v", surface.Closed, surface.Ops)
	}
}

func TestRunCancellationGraceTimeoutKills(t *testing.T) {
	surface := memfb.New(100, 100)
	handle := mocklauncher.NewHandle(1)
	handle.OnKill = func(h *mocklauncher.Handle) {
		h.Exit(port.Status{Signaled: true, Signal: 9})
	}
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })
	signals := NewCoordinator()
	signals.Cancel()

	c := newTestController(surface, launcher, &fakeRenderer{}, signals)
	outcome, err := c.Run(context.Background(), "/bin/sleep", []string{"30"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != Cancelled {
		t.Fatalf("got kind %v, want cancelled", outcome.Kind)
	}
	if handle.Interrupts != 1 || handle.Kills != 1 {
		t.Fatalf("expected interrupt then kill, got %d/%d", handle.Interrupts, handle.Kills)
	}
}

func TestRunCancellationUnkillableChild(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the final reap timeout")
	}
	surface := memfb.New(100, 100)
	handle := mocklauncher.NewHandle(1)
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })
	signals := NewCoordinator()
	signals.Cancel()

	c := newTestController(surface, launcher, &fakeRenderer{}, signals)
	outcome, err := c.Run(context.Background(), "/bin/sleep", []string{"30"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != Cancelled || outcome.ExitCode() != ExitCancelled {
		t.Fatalf("got kind %v code %d, want cancelled %d", outcome.Kind, outcome.ExitCode(), ExitCancelled)
	}
	if !surface.Closed {
		t.Fatal("surface not closed for an unkillable child")
	}
}

func TestRunContextCancellationDrains(t *testing.T) {
	surface := memfb.New(100, 100)
	handle := mocklauncher.NewHandle(1)
	handle.OnInterrupt = func(h *mocklauncher.Handle) {
		h.Exit(port.Status{Code: 0})
	}
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestController(surface, launcher, &fakeRenderer{}, NewCoordinator())
	outcome, err := c.Run(ctx, "/bin/sleep", []string{"30"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Kind != Cancelled {
		t.Fatalf("got kind %v, want cancelled", outcome.Kind)
	}
}

func TestRunPollLoopObservesLateExit(t *testing.T) {
	surface := memfb.New(100, 100)
	handle := mocklauncher.NewHandle(1)
	launcher := mocklauncher.New(func(string, []string) (port.Handle, error) { return handle, nil })
	time.AfterFunc(30*time.Millisecond, func() { handle.Exit(port.Status{Code: 3}) })

	c := newTestController(surface, launcher, &fakeRenderer{}, NewCoordinator())
	start := time.Now()
	outcome, err := c.Run(context.Background(), "/bin/sleep", nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.ExitCode() != 3 {
		t.Fatalf("exit code %d, want 3", outcome.ExitCode())
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("returned before the child exited: %v", elapsed)
	}
}
