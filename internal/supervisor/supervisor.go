// Package supervisor installs the cancellation handler. On the first
// interrupt it kills every live worker, reports each one on the error
// stream and ends the process with a non-zero status.
package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/logging"
	"github.com/agbru/compmgr/internal/registry"
)

// Killer is the part of the registry the supervisor needs.
type Killer interface {
	KillAll() []registry.Killed
}

// Supervisor watches for SIGINT and SIGTERM, or a programmatic Interrupt.
type Supervisor struct {
	killer  Killer
	errOut  io.Writer
	logger  logging.Logger
	exit    func(code int)
	signals chan os.Signal
	trigger chan string
	stop    chan struct{}
	done    chan struct{}

	hookMu sync.Mutex
	hook   func()

	startOnce sync.Once
	stopOnce  sync.Once
	fired     sync.Once
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithExit replaces os.Exit.
func WithExit(fn func(code int)) Option {
	return func(s *Supervisor) { s.exit = fn }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithSignals uses ch instead of subscribing to process signals.
func WithSignals(ch chan os.Signal) Option {
	return func(s *Supervisor) { s.signals = ch }
}

// New returns a supervisor reporting to errOut. It does nothing until Start.
func New(k Killer, errOut io.Writer, opts ...Option) *Supervisor {
	s := &Supervisor{
		killer:  k,
		errOut:  errOut,
		logger:  logging.Nop(),
		exit:    os.Exit,
		trigger: make(chan string, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to interrupts and runs the handler goroutine.
func (s *Supervisor) Start() {
	s.startOnce.Do(func() {
		if s.signals == nil {
			s.signals = make(chan os.Signal, 1)
			signal.Notify(s.signals, os.Interrupt, syscall.SIGTERM)
		}
		go s.loop()
	})
}

// Stop unsubscribes. An interrupt already being handled still completes.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		signal.Stop(s.signals)
		close(s.stop)
	})
}

// Interrupt triggers the handler as if SIGINT had arrived. It is used when
// the terminal is in raw mode and the key press never becomes a signal.
func (s *Supervisor) Interrupt() {
	select {
	case s.trigger <- "interrupt":
	default:
	}
}

// SetCancelHook registers fn to run before anything is written to the error
// stream, and returns a function that removes it. The dashboard uses it to
// give the terminal back. Only one hook is held at a time.
func (s *Supervisor) SetCancelHook(fn func()) (remove func()) {
	s.hookMu.Lock()
	s.hook = fn
	s.hookMu.Unlock()
	return func() {
		s.hookMu.Lock()
		s.hook = nil
		s.hookMu.Unlock()
	}
}

// Done is closed after the handler has run and exit has returned. With the
// default os.Exit it is never closed.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

func (s *Supervisor) loop() {
	select {
	case sig := <-s.signals:
		s.cancel(sig.String())
	case reason := <-s.trigger:
		s.cancel(reason)
	case <-s.stop:
	}
}

func (s *Supervisor) cancel(reason string) {
	s.fired.Do(func() {
		s.logger.Warn("cancellation requested", logging.String("signal", reason))
		s.hookMu.Lock()
		hook := s.hook
		s.hookMu.Unlock()
		if hook != nil {
			hook()
		}
		fmt.Fprintf(s.errOut, "\nCancellation requested (%s), terminating components.\n", reason)

		for _, k := range s.killer.KillAll() {
			if k.Err != nil {
				s.logger.Error("kill failed", k.Err, logging.String("task", k.Name), logging.Int("pid", k.PID))
				fmt.Fprintf(s.errOut, "Failed to terminate component: %s (PID: %d): %v\n", k.Name, k.PID, k.Err)
				continue
			}
			fmt.Fprintf(s.errOut, "Terminated component: %s (PID: %d)\n", k.Name, k.PID)
		}
		s.exit(apperrors.ExitErrorCanceled)
		close(s.done)
	})
}
