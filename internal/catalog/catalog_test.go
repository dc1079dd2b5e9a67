package catalog

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/compmgr/internal/errors"
)

func TestEval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id   FunctionID
		x    int
		want float64
	}{
		{F1, 3, 27},
		{F1, -2, -8},
		{F2, 4, 24},
		{F2, 0, 0},
		{F3, 16, 4},
		{F3, 2, math.Sqrt2},
	}
	for _, tt := range tests {
		got, err := Eval(tt.id, tt.x)
		if err != nil {
			t.Fatalf("Eval(%s, %d): %v", tt.id, tt.x, err)
		}
		if got != tt.want {
			t.Errorf("Eval(%s, %d) = %v, want %v", tt.id, tt.x, got, tt.want)
		}
	}
}

func TestEval_NegativeSqrtIsNaN(t *testing.T) {
	t.Parallel()
	got, err := Eval(F3, -1)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(got) {
		t.Errorf("Eval(f3, -1) = %v, want NaN", got)
	}
}

func TestEval_UnknownID(t *testing.T) {
	t.Parallel()
	_, err := Eval(FunctionID(0), 1)
	var target apperrors.UnknownFunctionError
	if !errors.As(err, &target) {
		t.Fatalf("expected UnknownFunctionError, got %v", err)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    FunctionID
		wantErr bool
	}{
		{"f1", F1, false},
		{"F2", F2, false},
		{" sqrt ", F3, false},
		{"cube", F1, false},
		{"g", F2, false},
		{"f4", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	t.Parallel()
	fs := All()
	if len(fs) != 3 {
		t.Fatalf("expected 3 catalog entries, got %d", len(fs))
	}
	fs[0].Name = "mutated"
	if f, _ := Lookup(F1); f.Name != "f1" {
		t.Error("All must not expose the backing slice")
	}
}

// TestFormulas_PropertyBased checks each entry against its closed form over
// random arguments.
func TestFormulas_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("f1 is the cube", prop.ForAll(
		func(x int) bool {
			got, _ := Eval(F1, x)
			return got == math.Pow(float64(x), 3)
		},
		gen.IntRange(-100000, 100000),
	))
	properties.Property("f2 is 1.5 times the square", prop.ForAll(
		func(x int) bool {
			got, _ := Eval(F2, x)
			return got == 1.5*float64(x)*float64(x)
		},
		gen.IntRange(-1000000, 1000000),
	))
	properties.Property("f3 squared recovers x", prop.ForAll(
		func(x int) bool {
			got, _ := Eval(F3, x)
			return math.Abs(got*got-float64(x)) <= 1e-9*math.Max(1, float64(x))
		},
		gen.IntRange(0, 1<<30),
	))
	properties.Property("Parse round-trips String", prop.ForAll(
		func(i int) bool {
			id := FunctionID(i)
			parsed, err := Parse(id.String())
			return err == nil && parsed == id
		},
		gen.IntRange(int(F1), int(F3)),
	))

	properties.TestingRun(t)
}
