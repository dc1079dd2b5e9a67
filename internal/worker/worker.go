//go:generate mockgen -source=worker.go -destination=mocks/mock_worker.go -package=mocks

package worker

import (
	"context"
	"time"

	"github.com/agbru/compmgr/internal/catalog"
)

// Spec names the computation a worker performs.
type Spec struct {
	Task     string
	Function catalog.FunctionID
	Arg      int
}

// Outcome is what a terminated worker produced.
type Outcome struct {
	// Value is the computed result; meaningful only when OK is true.
	Value float64
	// OK is true when the worker exited normally and delivered a full frame.
	OK bool
	// Status describes how the process ended, e.g. "exit status 0" or
	// "signal: killed".
	Status string
	// Elapsed is the wall time between start and observed exit.
	Elapsed time.Duration
}

// Handle is the orchestrator's view of one running worker.
type Handle interface {
	// PID returns the operating system process identifier.
	PID() int
	// Done is closed once the worker has terminated and been reaped.
	Done() <-chan struct{}
	// Wait blocks until Done is closed or ctx ends.
	Wait(ctx context.Context) error
	// Collect reads the result conduit. It must only be called after Done
	// is closed; later calls report a drained conduit.
	Collect() Outcome
	// Kill forcibly terminates the worker. Killing an exited worker is a no-op.
	Kill() error
	// Release closes the conduit without reading it.
	Release()
}

// Spawner starts workers.
type Spawner interface {
	Spawn(spec Spec) (Handle, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(spec Spec) (Handle, error)

// Spawn calls f(spec).
func (f SpawnerFunc) Spawn(spec Spec) (Handle, error) { return f(spec) }
