package registry

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/worker"
)

// ErrSealed is returned by Dispatch once KillAll has run, and by
// callers that stop collecting because of it.
var ErrSealed = errors.New("registry is shutting down")

// State is the reconciliation state of a task.
type State int

const (
	// StateUnknown means the name is not registered.
	StateUnknown State = iota
	// StateRunning means the worker has not terminated yet.
	StateRunning
	// StateFinished means termination was observed on this call and the
	// worker delivered a value.
	StateFinished
	// StateAbnormal means termination was observed on this call and the
	// worker did not deliver a value.
	StateAbnormal
	// StateAlreadyFinished means an earlier call already collected the result.
	StateAlreadyFinished
	// StateCanceled means the registry was sealed by KillAll before the
	// worker was reconciled. No result is collected for it.
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateAbnormal:
		return "abnormal"
	case StateAlreadyFinished:
		return "already finished"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the recorded outcome of a reconciled task.
type Result struct {
	Spec    worker.Spec
	PID     int
	Value   float64
	OK      bool
	Status  string
	Elapsed time.Duration
}

// Err returns the abnormal termination error, or nil when the task
// delivered a value.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return apperrors.AbnormalTerminationError{Task: r.Spec.Task, PID: r.PID, Status: r.Status}
}

// Status is a point-in-time report for one task. For a running task only
// Result.Spec and Result.PID are set.
type Status struct {
	Name   string
	State  State
	PID    int
	Result Result
}

// Killed records a worker that was forcibly terminated.
type Killed struct {
	Name string
	PID  int
	Err  error
}

type entry struct {
	spec   worker.Spec
	handle worker.Handle
	result *Result
}

type orphan struct {
	name   string
	handle worker.Handle
}

// Registry maps task names to handles. All methods are safe for
// concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	// orphans are live handles displaced by re-adding a name. They are
	// never reported but are still killed by ClearAll and KillAll.
	orphans []orphan
	sealed  bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Dispatch spawns the worker for spec and registers it under spec.Task
// while holding the registry lock, so a concurrent KillAll either sees the
// new worker or prevents it from starting.
func (r *Registry) Dispatch(spec worker.Spec, spawner worker.Spawner) (worker.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return nil, apperrors.DispatchError{Task: spec.Task, Cause: ErrSealed}
	}
	h, err := spawner.Spawn(spec)
	if err != nil {
		return nil, apperrors.DispatchError{Task: spec.Task, Cause: err}
	}
	r.registerLocked(spec, h)
	return h, nil
}

// Register records an already started worker. On a sealed registry the
// worker is killed immediately.
func (r *Registry) Register(spec worker.Spec, h worker.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		_ = h.Kill()
		return
	}
	r.registerLocked(spec, h)
}

func (r *Registry) registerLocked(spec worker.Spec, h worker.Handle) {
	if old, ok := r.entries[spec.Task]; ok && old.handle != nil {
		r.orphans = append(r.orphans, orphan{name: spec.Task, handle: old.handle})
	}
	r.entries[spec.Task] = &entry{spec: spec, handle: h}
}

// ReconcileOne checks a task without blocking. When its worker has
// terminated, the result is collected exactly once and the handle is
// dropped from the live set. Once the registry is sealed, live tasks
// report StateCanceled and nothing is collected.
func (r *Registry) ReconcileOne(name string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepOrphansLocked()

	e, ok := r.entries[name]
	if !ok {
		return Status{Name: name, State: StateUnknown}
	}
	if e.handle == nil {
		return Status{Name: name, State: StateAlreadyFinished, PID: e.result.PID, Result: *e.result}
	}
	if r.sealed {
		pid := e.handle.PID()
		return Status{Name: name, State: StateCanceled, PID: pid, Result: Result{Spec: e.spec, PID: pid}}
	}

	select {
	case <-e.handle.Done():
	default:
		pid := e.handle.PID()
		return Status{Name: name, State: StateRunning, PID: pid, Result: Result{Spec: e.spec, PID: pid}}
	}

	out := e.handle.Collect()
	res := &Result{
		Spec:    e.spec,
		PID:     e.handle.PID(),
		Value:   out.Value,
		OK:      out.OK,
		Status:  out.Status,
		Elapsed: out.Elapsed,
	}
	e.result = res
	e.handle = nil

	st := Status{Name: name, State: StateFinished, PID: res.PID, Result: *res}
	if !res.OK {
		st.State = StateAbnormal
	}
	return st
}

// Handle returns the live handle for name, if any.
func (r *Registry) Handle(name string) (worker.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok || e.handle == nil {
		return nil, false
	}
	return e.handle, true
}

// Names returns every registered task name in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Live returns the names of tasks whose worker has not been reconciled.
func (r *Registry) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepOrphansLocked()
	var names []string
	for name, e := range r.entries {
		if e.handle != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot yields a status for every task in name order without
// reconciling anything. Live tasks report StateRunning, reconciled ones
// StateAlreadyFinished. Each iteration reads the registry afresh.
func (r *Registry) Snapshot() iter.Seq2[string, Status] {
	return func(yield func(string, Status) bool) {
		for _, st := range r.statuses() {
			if !yield(st.Name, st) {
				return
			}
		}
	}
}

func (r *Registry) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusesLocked()
}

func (r *Registry) statusesLocked() []Status {
	out := make([]Status, 0, len(r.entries))
	for _, name := range slices.Sorted(maps.Keys(r.entries)) {
		e := r.entries[name]
		if e.handle != nil {
			out = append(out, Status{Name: name, State: StateRunning, PID: e.handle.PID(), Result: Result{Spec: e.spec}})
			continue
		}
		out = append(out, Status{Name: name, State: StateAlreadyFinished, PID: e.result.PID, Result: *e.result})
	}
	return out
}

// Results yields every collected result in name order. A sealed
// registry yields nothing.
func (r *Registry) Results() iter.Seq2[string, Result] {
	return func(yield func(string, Result) bool) {
		for _, st := range r.collected() {
			if !yield(st.Name, st.Result) {
				return
			}
		}
	}
}

func (r *Registry) collected() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return nil
	}
	var out []Status
	for _, st := range r.statusesLocked() {
		if st.State == StateAlreadyFinished {
			out = append(out, st)
		}
	}
	return out
}

// ClearAll kills every live worker, waits for them to be reaped and
// empties the registry. Workers that had already exited are released
// without being reported. The error is non-nil when ctx ended before
// every worker was reaped; the registry is emptied regardless.
func (r *Registry) ClearAll(ctx context.Context) ([]Killed, error) {
	r.mu.Lock()
	live := r.liveLocked()
	killed := killLocked(live)
	r.entries = make(map[string]*entry)
	r.orphans = nil
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, o := range live {
		g.Go(func() error {
			err := o.handle.Wait(gctx)
			o.handle.Release()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return killed, fmt.Errorf("reaping workers: %w", err)
	}
	return killed, nil
}

// KillAll kills every live worker and seals the registry so no further
// worker can be dispatched. It does not wait for reaping.
func (r *Registry) KillAll() []Killed {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	return killLocked(r.liveLocked())
}

// Sealed reports whether KillAll has run.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// sweepOrphansLocked releases displaced handles whose worker has exited
// on its own, keeping only those still running.
func (r *Registry) sweepOrphansLocked() {
	kept := r.orphans[:0]
	for _, o := range r.orphans {
		select {
		case <-o.handle.Done():
			o.handle.Release()
		default:
			kept = append(kept, o)
		}
	}
	clear(r.orphans[len(kept):])
	r.orphans = kept
}

// liveLocked lists registered live handles in name order followed by
// orphans.
func (r *Registry) liveLocked() []orphan {
	var live []orphan
	for _, name := range slices.Sorted(maps.Keys(r.entries)) {
		if h := r.entries[name].handle; h != nil {
			live = append(live, orphan{name: name, handle: h})
		}
	}
	return append(live, r.orphans...)
}

// killLocked kills each handle that has not terminated yet and reports it.
func killLocked(live []orphan) []Killed {
	var killed []Killed
	for _, o := range live {
		select {
		case <-o.handle.Done():
			continue
		default:
		}
		killed = append(killed, Killed{Name: o.name, PID: o.handle.PID(), Err: o.handle.Kill()})
	}
	return killed
}
