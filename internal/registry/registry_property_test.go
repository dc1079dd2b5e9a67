package registry

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/compmgr/internal/worker/workertest"
)

// Each task is finished (0), failed (1) or left running (2).
func TestReconcileProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("second pass reports already finished for every task the first pass reconciled", prop.ForAll(
		func(fates []int) bool {
			r := New()
			for i, fate := range fates {
				h := workertest.NewHandle()
				r.Register(spec(fmt.Sprintf("t%03d", i)), h)
				switch fate {
				case 0:
					h.Finish(float64(i))
				case 1:
					h.Fail("exit status 1")
				}
			}

			first := map[string]State{}
			for _, name := range r.Names() {
				first[name] = r.ReconcileOne(name).State
			}
			for _, name := range r.Names() {
				got := r.ReconcileOne(name).State
				switch first[name] {
				case StateFinished, StateAbnormal:
					if got != StateAlreadyFinished {
						return false
					}
				case StateRunning:
					if got != StateRunning {
						return false
					}
				default:
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.Property("every result is collected at most once", prop.ForAll(
		func(n int, passes int) bool {
			r := New()
			handles := make([]*workertest.Handle, n)
			for i := range handles {
				handles[i] = workertest.NewHandle()
				r.Register(spec(fmt.Sprintf("t%03d", i)), handles[i])
				handles[i].Finish(1)
			}
			for range passes {
				for _, name := range r.Names() {
					r.ReconcileOne(name)
				}
			}
			for _, h := range handles {
				if h.Collections() != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}
