// Package conduit implements the one-shot result channel between a worker
// process and the orchestrator: an OS pipe carrying exactly one float64.
//
// The writer side is handed to the worker process; the orchestrator keeps the
// Reader and calls Read only after it has observed the worker's exit, so the
// read never waits on a live writer.
package conduit

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"sync"
)

// FrameSize is the size in bytes of an encoded result.
const FrameSize = 8

var (
	// ErrDrained is returned by Read once the value has been consumed or the
	// reader has been closed.
	ErrDrained = errors.New("conduit: already drained")
	// ErrNoValue is returned when the writer went away without a full frame.
	ErrNoValue = errors.New("conduit: writer closed without a value")
)

// Reader is the orchestrator side of a conduit.
type Reader struct {
	mu      sync.Mutex
	f       *os.File
	drained bool
}

// New creates a conduit. The returned file is the write end that must be
// passed to the worker and closed by the caller once the worker has started.
func New() (*Reader, *os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	return &Reader{f: r}, w, nil
}

// NewReader wraps an already open read end.
func NewReader(f *os.File) *Reader {
	return &Reader{f: f}
}

// Read consumes the single value. It closes the read end whatever the
// outcome, so a second call returns ErrDrained.
func (r *Reader) Read() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drained {
		return 0, ErrDrained
	}
	r.drained = true
	defer r.f.Close()

	var buf [FrameSize]byte
	if _, err := io.ReadFull(r.f, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrNoValue
		}
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// Drained reports whether the value has been consumed or the reader closed.
func (r *Reader) Drained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drained
}

// Close releases the read end without reading. Closing a drained reader is
// a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drained {
		return nil
	}
	r.drained = true
	return r.f.Close()
}

// Write encodes v as one frame on w. The worker calls it exactly once.
func Write(w io.Writer, v float64) error {
	var buf [FrameSize]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}
