package worker

import (
	"io"
	"os"
	"strconv"

	"github.com/agbru/compmgr/internal/catalog"
	"github.com/agbru/compmgr/internal/conduit"
)

// Subcommand is the first argument that switches the binary into worker mode.
const Subcommand = "__worker"

// ResultFD is the file descriptor the child writes its frame to. ExtraFiles
// entries start at 3.
const ResultFD = 3

// Worker exit codes.
const (
	ExitOK         = 0
	ExitWriteError = 1
	ExitUsage      = 2
)

// IsInvocation reports whether args (without the program name) request
// worker mode.
func IsInvocation(args []string) bool {
	return len(args) > 0 && args[0] == Subcommand
}

// ResultFile returns the inherited write end of the result conduit.
func ResultFile() *os.File {
	return os.NewFile(ResultFD, "result")
}

// Serve is the child-side entry point. args are "<function> <argument>";
// the value is written to out exactly once.
func Serve(args []string, out io.Writer) int {
	if len(args) != 2 {
		return ExitUsage
	}
	id, err := catalog.Parse(args[0])
	if err != nil {
		return ExitUsage
	}
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return ExitUsage
	}
	v, err := catalog.Eval(id, x)
	if err != nil {
		return ExitUsage
	}
	if err := conduit.Write(out, v); err != nil {
		return ExitWriteError
	}
	return ExitOK
}
