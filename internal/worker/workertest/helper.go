package workertest

import (
	"os"
	"testing"
	"time"

	"github.com/agbru/compmgr/internal/worker"
)

const (
	helperEnv = "GO_WANT_WORKER_HELPER"
	modeEnv   = "WORKER_HELPER_MODE"
)

// Helper modes understood by RunHelper.
const (
	ModeServe  = "serve"  // evaluate and deliver the value
	ModeHang   = "hang"   // never finish
	ModeCrash  = "crash"  // exit non-zero without a value
	ModeSilent = "silent" // exit zero without a value
)

// RunHelper turns the test binary into a worker process when it was
// started by a HelperSpawner. Call it from TestWorkerHelperProcess; it
// returns immediately in the normal test run.
func RunHelper() {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	switch os.Getenv(modeEnv) {
	case ModeHang:
		time.Sleep(10 * time.Minute)
		os.Exit(0)
	case ModeCrash:
		os.Exit(3)
	case ModeSilent:
		os.Exit(0)
	}
	for i, arg := range os.Args {
		if arg == worker.Subcommand {
			os.Exit(worker.Serve(os.Args[i+1:], worker.ResultFile()))
		}
	}
	os.Exit(worker.ExitUsage)
}

// HelperSpawner returns a spawner that re-runs the current test binary as
// a worker in the given mode. The calling package must define
//
//	func TestWorkerHelperProcess(t *testing.T) { workertest.RunHelper() }
func HelperSpawner(tb testing.TB, mode string) *worker.ProcessSpawner {
	tb.Helper()
	exe, err := os.Executable()
	if err != nil {
		tb.Fatalf("locate test binary: %v", err)
	}
	return &worker.ProcessSpawner{
		Path: exe,
		Args: []string{"-test.run=^TestWorkerHelperProcess$", "--"},
		Env:  append(os.Environ(), helperEnv+"=1", modeEnv+"="+mode),
	}
}

// Route picks a spawner per task name, falling back to def.
func Route(def worker.Spawner, byTask map[string]worker.Spawner) worker.Spawner {
	return worker.SpawnerFunc(func(spec worker.Spec) (worker.Handle, error) {
		if s, ok := byTask[spec.Task]; ok {
			return s.Spawn(spec)
		}
		return def.Spawn(spec)
	})
}
