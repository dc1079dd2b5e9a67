package conduit

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestReadAfterWrite(t *testing.T) {
	t.Parallel()
	r, w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := Write(w, 24.0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Close()

	got, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 24.0 {
		t.Errorf("Read = %v, want 24", got)
	}
	if !r.Drained() {
		t.Error("reader should be drained after Read")
	}
}

func TestReadTwiceReturnsDrained(t *testing.T) {
	t.Parallel()
	r, w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	_ = Write(w, 1)
	w.Close()

	if _, err := r.Read(); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, err := r.Read(); !errors.Is(err, ErrDrained) {
		t.Fatalf("second Read error = %v, want ErrDrained", err)
	}
}

func TestWriterClosedWithoutValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"short frame", []byte{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, w, err := New()
			if err != nil {
				t.Fatal(err)
			}
			if len(tt.payload) > 0 {
				_, _ = w.Write(tt.payload)
			}
			w.Close()
			if _, err := r.Read(); !errors.Is(err, ErrNoValue) {
				t.Fatalf("Read error = %v, want ErrNoValue", err)
			}
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	r, w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := r.Read(); !errors.Is(err, ErrDrained) {
		t.Fatalf("Read after Close = %v, want ErrDrained", err)
	}
}

// TestRoundTrip_PropertyBased checks that every float64 bit pattern survives
// the frame encoding.
func TestRoundTrip_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("value read equals value written", prop.ForAll(
		func(bits uint64) bool {
			v := math.Float64frombits(bits)
			r, w, err := New()
			if err != nil {
				return false
			}
			if err := Write(w, v); err != nil {
				return false
			}
			w.Close()
			got, err := r.Read()
			return err == nil && math.Float64bits(got) == bits
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
