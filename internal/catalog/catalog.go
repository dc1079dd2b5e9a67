// Package catalog holds the fixed set of pure computations a worker can run.
// Every entry maps one integer argument to a float64 and never blocks.
package catalog

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/agbru/compmgr/internal/errors"
)

// FunctionID selects a computation from the catalog.
type FunctionID int

// The catalog entries. The zero value is invalid.
const (
	F1 FunctionID = iota + 1 // x^3
	F2                       // 1.5 * x^2
	F3                       // sqrt(x)
)

// Function describes one catalog entry.
type Function struct {
	ID      FunctionID
	Name    string
	Formula string
	Aliases []string
	eval    func(x int) float64
}

var functions = []Function{
	{ID: F1, Name: "f1", Formula: "x^3", Aliases: []string{"cube"}, eval: func(x int) float64 {
		v := float64(x)
		return v * v * v
	}},
	{ID: F2, Name: "f2", Formula: "1.5 * x^2", Aliases: []string{"g"}, eval: func(x int) float64 {
		v := float64(x)
		return 1.5 * v * v
	}},
	{ID: F3, Name: "f3", Formula: "sqrt(x)", Aliases: []string{"sqrt"}, eval: func(x int) float64 {
		return math.Sqrt(float64(x))
	}},
}

// All returns the catalog entries in identifier order.
func All() []Function {
	out := make([]Function, len(functions))
	copy(out, functions)
	return out
}

// Lookup returns the entry for id.
func Lookup(id FunctionID) (Function, bool) {
	for _, f := range functions {
		if f.ID == id {
			return f, true
		}
	}
	return Function{}, false
}

// Parse resolves a user-supplied name or alias, case-insensitively.
func Parse(name string) (FunctionID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, f := range functions {
		if n == f.Name {
			return f.ID, nil
		}
		for _, a := range f.Aliases {
			if n == a {
				return f.ID, nil
			}
		}
	}
	return 0, apperrors.UnknownFunctionError{Name: name}
}

// Eval runs the computation identified by id on x.
func Eval(id FunctionID, x int) (float64, error) {
	f, ok := Lookup(id)
	if !ok {
		return 0, apperrors.UnknownFunctionError{Name: id.String()}
	}
	return f.eval(x), nil
}

// String returns the canonical name, e.g. "f2".
func (id FunctionID) String() string {
	if f, ok := Lookup(id); ok {
		return f.Name
	}
	return "f" + strconv.Itoa(int(id))
}
