package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/agbru/compmgr/internal/conduit"
	apperrors "github.com/agbru/compmgr/internal/errors"
)

// ProcessSpawner launches each worker as a child process running Path with
// Args followed by the worker subcommand.
type ProcessSpawner struct {
	// Path is the executable to run; normally the current binary.
	Path string
	// Args are inserted before the worker subcommand.
	Args []string
	// Env is the child environment; nil inherits the parent's.
	Env []string
	// Stderr receives the child's diagnostic output; nil discards it.
	Stderr io.Writer
}

// NewProcessSpawner returns a spawner that re-executes the running binary.
func NewProcessSpawner() (*ProcessSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, apperrors.WrapError(err, "locate executable")
	}
	return &ProcessSpawner{Path: exe}, nil
}

// Spawn starts a worker for spec. The call returns as soon as the child has
// been started; it never waits for the computation.
func (s *ProcessSpawner) Spawn(spec Spec) (Handle, error) {
	reader, w, err := conduit.New()
	if err != nil {
		return nil, apperrors.WrapError(err, "open result conduit")
	}

	args := append(slices.Clone(s.Args), Subcommand, spec.Function.String(), strconv.Itoa(spec.Arg))
	cmd := exec.Command(s.Path, args...)
	cmd.Env = s.Env
	cmd.Stderr = s.Stderr
	cmd.ExtraFiles = []*os.File{w}
	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		w.Close()
		reader.Close()
		return nil, apperrors.WrapError(err, "start worker process")
	}
	// The child holds its own copy; closing ours lets the reader see EOF
	// once the child is gone.
	w.Close()

	p := &Process{
		cmd:     cmd,
		reader:  reader,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// Process is a Handle backed by an operating system process.
type Process struct {
	cmd     *exec.Cmd
	reader  *conduit.Reader
	started time.Time
	done    chan struct{}

	// Written by reap before done is closed.
	waitErr error
	exited  time.Time

	collectOnce sync.Once
	outcome     Outcome
}

func (p *Process) reap() {
	p.waitErr = p.cmd.Wait()
	p.exited = time.Now()
	close(p.done)
}

// PID returns the child's process identifier.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Done is closed when the child has been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the child exits or ctx ends.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Collect returns the child's outcome, reading the conduit on first call.
func (p *Process) Collect() Outcome {
	<-p.done
	p.collectOnce.Do(func() {
		p.outcome = p.collect()
	})
	return p.outcome
}

func (p *Process) collect() Outcome {
	out := Outcome{Elapsed: p.exited.Sub(p.started), Status: describeExit(p.cmd.ProcessState, p.waitErr)}
	if p.waitErr != nil {
		p.reader.Close()
		return out
	}
	v, err := p.reader.Read()
	if err != nil {
		out.Status = fmt.Sprintf("%s, %v", out.Status, err)
		return out
	}
	out.Value = v
	out.OK = true
	return out
}

// Kill terminates the child's process group.
func (p *Process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	err := terminateProcess(p.cmd)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Release closes the conduit without reading it.
func (p *Process) Release() {
	p.reader.Close()
}

func describeExit(state *os.ProcessState, waitErr error) string {
	if state != nil {
		return state.String()
	}
	if waitErr != nil {
		return waitErr.Error()
	}
	return "unknown"
}
