// Package workertest provides worker doubles for tests in other packages.
package workertest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agbru/compmgr/internal/catalog"
	"github.com/agbru/compmgr/internal/worker"
)

var nextPID atomic.Int64

func init() { nextPID.Store(40000) }

// Handle is an in-memory worker.Handle whose termination the test controls.
type Handle struct {
	pid  int
	done chan struct{}

	mu        sync.Mutex
	outcome   worker.Outcome
	collected int
	killed    bool
	released  bool
	finished  bool
}

// NewHandle returns a running fake handle with a fresh PID.
func NewHandle() *Handle {
	return &Handle{pid: int(nextPID.Add(1)), done: make(chan struct{})}
}

// Finish terminates the handle with a delivered value.
func (h *Handle) Finish(v float64) {
	h.terminate(worker.Outcome{Value: v, OK: true, Status: "exit status 0", Elapsed: time.Millisecond})
}

// Fail terminates the handle as if the process crashed.
func (h *Handle) Fail(status string) {
	h.terminate(worker.Outcome{Status: status, Elapsed: time.Millisecond})
}

func (h *Handle) terminate(o worker.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.finished = true
	h.outcome = o
	close(h.done)
}

// PID returns the fake process identifier.
func (h *Handle) PID() int { return h.pid }

// Done is closed once the handle is finished, failed or killed.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) Collect() worker.Outcome {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collected++
	if h.collected > 1 {
		return worker.Outcome{Status: "conduit drained"}
	}
	return h.outcome
}

func (h *Handle) Kill() error {
	h.mu.Lock()
	h.killed = true
	h.mu.Unlock()
	h.terminate(worker.Outcome{Status: "signal: killed"})
	return nil
}

func (h *Handle) Release() {
	h.mu.Lock()
	h.released = true
	h.mu.Unlock()
}

// Killed reports whether Kill was called.
func (h *Handle) Killed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killed
}

// Released reports whether Release was called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Collections reports how many times Collect was called.
func (h *Handle) Collections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collected
}

// Spawner hands out fake handles. With Auto set, each handle finishes
// immediately with the catalog value for its spec.
type Spawner struct {
	Auto bool
	Err  error

	mu      sync.Mutex
	handles map[string]*Handle
	specs   []worker.Spec
}

// Spawn implements worker.Spawner.
func (s *Spawner) Spawn(spec worker.Spec) (worker.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	h := NewHandle()
	if s.Auto {
		v, err := catalog.Eval(spec.Function, spec.Arg)
		if err != nil {
			h.Fail("exit status 2")
		} else {
			h.Finish(v)
		}
	}
	if s.handles == nil {
		s.handles = make(map[string]*Handle)
	}
	s.handles[spec.Task] = h
	s.specs = append(s.specs, spec)
	return h, nil
}

// Handle returns the most recent handle spawned for task.
func (s *Spawner) Handle(task string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[task]
}

// Specs returns every spec passed to Spawn, in call order.
func (s *Spawner) Specs() []worker.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]worker.Spec(nil), s.specs...)
}
