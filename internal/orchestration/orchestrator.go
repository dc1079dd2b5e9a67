package orchestration

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/compmgr/internal/catalog"
	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/logging"
	"github.com/agbru/compmgr/internal/metrics"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/worker"
)

const tracerName = "github.com/agbru/compmgr/internal/orchestration"

// Group is the single active collection of tasks.
type Group struct {
	Name    string
	ID      uuid.UUID
	Created time.Time
}

// Orchestrator owns the group and the task registry. Commands are expected
// to arrive from one goroutine; the registry itself may be read
// concurrently by the cancellation handler and the metrics server.
type Orchestrator struct {
	spawner  worker.Spawner
	registry *registry.Registry
	logger   logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time

	mu    sync.RWMutex
	group *Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics records dispatch and reconcile events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithRegistry uses an existing registry instead of a fresh one.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithClock overrides the time source used for group creation.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an orchestrator with no active group.
func New(spawner worker.Spawner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		spawner: spawner,
		logger:  logging.Nop(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = registry.New()
	}
	return o
}

// Registry returns the live task registry.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// Group returns the active group, if any.
func (o *Orchestrator) Group() (Group, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.group == nil {
		return Group{}, false
	}
	return *o.group, true
}

func (o *Orchestrator) requireGroup() (Group, error) {
	g, ok := o.Group()
	if !ok {
		return Group{}, apperrors.ErrNoActiveGroup
	}
	return g, nil
}

// CreateGroup makes name the active group.
func (o *Orchestrator) CreateGroup(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.ErrInvalidGroupName
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.group != nil {
		return apperrors.ErrGroupAlreadyExists
	}
	o.group = &Group{Name: name, ID: uuid.New(), Created: o.now()}
	o.logger.Info("group created",
		logging.String("group", name),
		logging.String("group_id", o.group.ID.String()))
	return nil
}

// AddTask starts a worker computing fn(arg) under name. It returns as soon
// as the worker is running. Re-adding a name replaces the previous task.
func (o *Orchestrator) AddTask(ctx context.Context, name string, fn catalog.FunctionID, arg int) error {
	_, span := o.tracer.Start(ctx, "Orchestrator.AddTask", trace.WithAttributes(
		attribute.String("task", name),
		attribute.String("function", fn.String()),
		attribute.Int("arg", arg),
	))
	defer span.End()

	g, err := o.requireGroup()
	if err != nil {
		return recordSpanError(span, err)
	}
	if _, ok := catalog.Lookup(fn); !ok {
		return recordSpanError(span, apperrors.UnknownFunctionError{Name: fn.String()})
	}

	spec := worker.Spec{Task: name, Function: fn, Arg: arg}
	h, err := o.registry.Dispatch(spec, o.spawner)
	if err != nil {
		o.metrics.DispatchFailed()
		o.logger.Error("dispatch failed", err, logging.String("task", name))
		return recordSpanError(span, err)
	}

	o.metrics.WorkerStarted()
	span.SetAttributes(attribute.Int("pid", h.PID()))
	o.logger.Info("worker dispatched",
		logging.String("group_id", g.ID.String()),
		logging.String("task", name),
		logging.Int("pid", h.PID()),
		logging.String("function", fn.String()),
		logging.Int("arg", arg))
	return nil
}

// PollStatus reconciles every task without blocking and reports each one.
// Calling it twice in a row reports StateAlreadyFinished for every task the
// first call reconciled.
func (o *Orchestrator) PollStatus(ctx context.Context) ([]registry.Status, error) {
	_, span := o.tracer.Start(ctx, "Orchestrator.PollStatus")
	defer span.End()

	if _, err := o.requireGroup(); err != nil {
		return nil, recordSpanError(span, err)
	}
	names := o.registry.Names()
	statuses := make([]registry.Status, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, o.reconcile(name))
	}
	span.SetAttributes(attribute.Int("tasks", len(statuses)))
	return statuses, nil
}

// RunAll waits for each task in ascending name order and reconciles it.
// When ctx ends the statuses gathered so far are returned with ctx's error;
// workers that were not reached keep running. When the registry is sealed
// while waiting, collection stops with registry.ErrSealed.
func (o *Orchestrator) RunAll(ctx context.Context, progress ProgressReporter) ([]registry.Status, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.RunAll")
	defer span.End()

	if _, err := o.requireGroup(); err != nil {
		return nil, recordSpanError(span, err)
	}
	if progress == nil {
		progress = NullProgressReporter{}
	}

	names := o.registry.Names()
	statuses := make([]registry.Status, 0, len(names))
	for i, name := range names {
		if h, ok := o.registry.Handle(name); ok {
			if err := h.Wait(ctx); err != nil {
				return statuses, recordSpanError(span, err)
			}
		}
		st := o.reconcile(name)
		if st.State == registry.StateCanceled {
			return statuses, recordSpanError(span, registry.ErrSealed)
		}
		statuses = append(statuses, st)
		progress.TaskCollected(st, i+1, len(names))
	}
	return statuses, nil
}

// Summary yields every collected result in name order. The sequence reads
// the registry afresh on each iteration.
func (o *Orchestrator) Summary() (iter.Seq2[string, registry.Result], error) {
	if _, err := o.requireGroup(); err != nil {
		return nil, err
	}
	return o.registry.Results(), nil
}

// Clear kills every live worker, drops all tasks and results and forgets
// the group. It always succeeds and is a no-op when nothing is active.
func (o *Orchestrator) Clear(ctx context.Context) []registry.Killed {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Clear")
	defer span.End()

	killed, err := o.registry.ClearAll(ctx)
	if err != nil {
		o.logger.Warn("clear did not reap every worker", logging.Err(err))
		span.RecordError(err)
	}
	o.metrics.WorkersKilled(len(killed))
	for _, k := range killed {
		o.logger.Info("worker killed", logging.String("task", k.Name), logging.Int("pid", k.PID))
		if k.Err != nil {
			o.logger.Warn("kill failed", logging.String("task", k.Name), logging.Int("pid", k.PID), logging.Err(k.Err))
		}
	}

	o.mu.Lock()
	if o.group != nil {
		o.logger.Info("group cleared", logging.String("group", o.group.Name))
	}
	o.group = nil
	o.mu.Unlock()

	span.SetAttributes(attribute.Int("killed", len(killed)))
	return killed
}

func (o *Orchestrator) reconcile(name string) registry.Status {
	st := o.registry.ReconcileOne(name)
	switch st.State {
	case registry.StateFinished:
		o.metrics.WorkerReconciled(true, st.Result.Elapsed)
		o.logger.Info("worker finished",
			logging.String("task", name),
			logging.Int("pid", st.PID),
			logging.Float64("value", st.Result.Value),
			logging.Duration("elapsed", st.Result.Elapsed))
	case registry.StateAbnormal:
		o.metrics.WorkerReconciled(false, st.Result.Elapsed)
		o.logger.Warn("worker terminated abnormally",
			logging.String("task", name),
			logging.Int("pid", st.PID),
			logging.String("status", st.Result.Status))
	}
	return st
}

func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
