/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package taskrunner

import (
	"context"
	"sync"
)

// TaskRunner drives one start-then-main task through Idle -> Starting ->
// Running -> Stopping -> Idle. A TaskRunner is reusable: once a run
// settles, the next Run/Start begins a fresh one.
type TaskRunner struct {
	mu sync.Mutex

	startFn StartFunc
	mainFn  MainFunc

	state  State
	stopCh chan struct{}

	startRun *Run
	mainRun  *Run
}

// New builds a TaskRunner; neither function is invoked until Run or Start
// is called.
func New(mainFn MainFunc, startFn StartFunc) *TaskRunner {
	return &TaskRunner{
		state:   Idle,
		mainFn:  mainFn,
		startFn: startFn,
	}
}

type access struct {
	stop chan struct{}
	tr   *TaskRunner
}

func (a *access) ShouldStop() bool {
	select {
	case <-a.stop:
		return true
	default:
		return false
	}
}

func (a *access) Done() <-chan struct{} {
	return a.stop
}

// RaceStop blocks until whichever comes first: the run is asked to stop,
// done fires, or ctx is canceled. It must treat "no stop requested yet" as
// distinct from IsRunning's notion of running, since IsRunning is false for
// the entire Starting phase and a startFn that calls RaceStop would
// otherwise see every call return (true, nil) before a stop was ever
// requested.
func (a *access) RaceStop(ctx context.Context, done <-chan struct{}) (bool, error) {
	if !a.tr.active() {
		return true, nil
	}

	select {
	case <-a.stop:
		return true, nil
	case <-done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// begin transitions Idle -> Starting and launches execute under ctx, or
// returns the in-flight run's handles if one is already active.
func (t *TaskRunner) begin(ctx context.Context) (sr *Run, mr *Run, alreadyActive bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	if t.state != Idle {
		sr, mr = t.startRun, t.mainRun
		t.mu.Unlock()
		return sr, mr, true
	}

	t.state = Starting
	stop := make(chan struct{})
	t.stopCh = stop
	t.startRun = newRun()
	t.mainRun = newRun()
	sr, mr = t.startRun, t.mainRun
	acc := &access{stop: stop, tr: t}
	t.mu.Unlock()

	go t.execute(ctx, acc, sr, mr)
	return sr, mr, false
}

func (t *TaskRunner) execute(ctx context.Context, acc *access, sr *Run, mr *Run) {
	var err error
	if t.startFn != nil {
		err = t.startFn(ctx, acc)
	}
	sr.settle(err)

	if err != nil {
		t.mu.Lock()
		t.state = Idle
		t.mu.Unlock()
		mr.settle(err)
		return
	}

	t.mu.Lock()
	t.state = Running
	t.mu.Unlock()

	var mErr error
	if t.mainFn != nil {
		mErr = t.mainFn(ctx, acc)
	}

	t.mu.Lock()
	t.state = Idle
	t.mu.Unlock()
	mr.settle(mErr)
}

// Run starts the task if idle and returns a handle settling with mainFn's
// outcome. Both callables receive ctx, so the caller that begins the run
// decides its cancellation scope. If a run is already active, the in-flight
// run's handle is returned instead and ctx is not substituted for the one
// the run already carries.
func (t *TaskRunner) Run(ctx context.Context) *Run {
	_, mr, _ := t.begin(ctx)
	return mr
}

// Start behaves like Run but the returned handle settles as soon as the
// start phase completes; the main phase keeps running independently.
func (t *TaskRunner) Start(ctx context.Context) *Run {
	sr, _, _ := t.begin(ctx)
	return sr
}

// Stop requests the active run to wind down and returns its main-phase
// handle. If nothing is running, it returns an already-settled handle.
func (t *TaskRunner) Stop(ctx context.Context) *Run {
	t.mu.Lock()
	if t.state == Idle {
		t.mu.Unlock()
		return settledRun(nil)
	}

	mr := t.mainRun
	t.state = Stopping
	// Close under the lock; only Stop ever closes stopCh, so the select is
	// an exact has-it-been-closed check and concurrent Stop callers cannot
	// double-close.
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
	t.mu.Unlock()

	return mr
}

// Restart stops the active run (if any) and begins a fresh one once it
// has settled.
func (t *TaskRunner) Restart(ctx context.Context) *Run {
	if mr := t.Stop(ctx); mr != nil {
		_ = mr.Wait(ctx)
	}
	_, mr, _ := t.begin(ctx)
	return mr
}

// IsRunning is true from the Running state's entry until mainFn fully
// settles, remaining true through Stopping.
func (t *TaskRunner) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Running || t.state == Stopping
}

// active is true for the whole lifetime of a run -- Starting, Running, and
// Stopping -- unlike IsRunning, which only turns true once Starting has
// finished. access.RaceStop needs this broader notion so it behaves
// correctly when called from startFn, before the run has reached Running.
func (t *TaskRunner) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != Idle
}

// WhenStarted blocks until the active run's start phase completes; it
// returns nil immediately when no run is active.
func (t *TaskRunner) WhenStarted(ctx context.Context) error {
	t.mu.Lock()
	if t.state == Idle {
		t.mu.Unlock()
		return nil
	}
	sr := t.startRun
	t.mu.Unlock()

	return sr.Wait(ctx)
}
