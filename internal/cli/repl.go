// Package cli provides the interactive command loop and its output
// formatting.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/agbru/compmgr/internal/catalog"
	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/orchestration"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/ui"
)

// Orchestrator is the command surface the REPL drives.
type Orchestrator interface {
	CreateGroup(name string) error
	Group() (orchestration.Group, bool)
	AddTask(ctx context.Context, name string, fn catalog.FunctionID, arg int) error
	PollStatus(ctx context.Context) ([]registry.Status, error)
	RunAll(ctx context.Context, progress orchestration.ProgressReporter) ([]registry.Status, error)
	Summary() (iter.Seq2[string, registry.Result], error)
	Clear(ctx context.Context) []registry.Killed
}

// DefaultFunction is used by "new <name> <arg>".
const DefaultFunction = catalog.F2

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// Prompt is printed before each command. Defaults to "compmgr> ".
	Prompt string
	// Watch runs the live dashboard. A nil Watch disables the command.
	Watch func(ctx context.Context) error
	// Quiet suppresses the banner and help on start.
	Quiet bool
}

// REPL is an interactive session over one orchestrator.
type REPL struct {
	config    REPLConfig
	orch      Orchestrator
	presenter orchestration.ResultPresenter
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
}

// NewREPL creates a REPL reading stdin and writing stdout and stderr.
func NewREPL(orch Orchestrator, config REPLConfig) *REPL {
	if config.Prompt == "" {
		config.Prompt = "compmgr> "
	}
	return &REPL{
		config:    config,
		orch:      orch,
		presenter: CLIResultPresenter{ErrOut: os.Stderr},
		in:        os.Stdin,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// SetErrorOutput sets where errors and abnormal terminations are written.
func (r *REPL) SetErrorOutput(errOut io.Writer) {
	r.errOut = errOut
	r.presenter = CLIResultPresenter{ErrOut: errOut}
}

// Start reads and executes commands until exit or EOF. Live workers are
// killed before it returns.
func (r *REPL) Start(ctx context.Context) {
	if !r.config.Quiet {
		r.printBanner()
		r.printHelp()
		fmt.Fprintln(r.out)
	}

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, ui.Paint(ui.ColorSuccess(), r.config.Prompt))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				r.printError(fmt.Errorf("read input: %w", err))
			}
			fmt.Fprintln(r.out)
			r.shutdown(ctx)
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if !r.processCommand(ctx, input) {
			r.shutdown(ctx)
			return
		}
	}
}

func (r *REPL) shutdown(ctx context.Context) {
	PresentKilled(r.orch.Clear(ctx), r.out)
	fmt.Fprintln(r.out, "Goodbye!")
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "%scompmgr%s %s- isolated computation workers%s\n",
		ui.ColorBold(), ui.ColorReset(), ui.ColorSecondary(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	cmds := []struct{ usage, help string }{
		{"group <name>", "Create the active group"},
		{"new <name> [fn] <arg>", "Start a component computing fn(arg), default " + DefaultFunction.String()},
		{"status", "Report every component without waiting"},
		{"run", "Wait for all components in name order"},
		{"summary", "Show collected results"},
		{"clear", "Kill live components and drop the group"},
		{"list", "List available functions"},
		{"watch", "Live dashboard (q to leave)"},
		{"help", "Display this help"},
		{"exit", "Kill live components and quit"},
	}
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, c := range cmds {
		fmt.Fprintf(r.out, "  %s - %s\n", ui.Paint(ui.ColorWarning(), padRight(c.usage, 22)), c.help)
	}
}

// processCommand parses and executes one line. It returns false when the
// REPL should exit.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "group", "g":
		r.cmdGroup(args)
	case "new", "add", "n":
		r.cmdNew(ctx, args)
	case "status", "st":
		r.cmdStatus(ctx)
	case "run", "r":
		r.cmdRun(ctx)
	case "summary", "sum":
		r.cmdSummary()
	case "clear":
		r.cmdClear(ctx)
	case "list", "ls":
		PresentCatalog(r.out)
	case "watch", "w":
		r.cmdWatch(ctx)
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		return false
	default:
		fmt.Fprintf(r.errOut, "%s\n", ui.Paint(ui.ColorError(), "Unknown command: "+cmd))
		fmt.Fprintf(r.out, "Type %s to see available commands.\n", ui.Paint(ui.ColorWarning(), "help"))
	}
	return true
}

func (r *REPL) cmdGroup(args []string) {
	if len(args) != 1 {
		r.printUsage("group <name>")
		return
	}
	if err := r.orch.CreateGroup(args[0]); err != nil {
		r.printError(err)
		return
	}
	g, _ := r.orch.Group()
	fmt.Fprintf(r.out, "Group %s created %s\n", ui.Paint(ui.ColorPrimary(), g.Name),
		ui.Paint(ui.ColorSecondary(), "("+g.ID.String()+")"))
}

// cmdNew handles "new <name> <arg>" and "new <name> <fn> <arg>".
func (r *REPL) cmdNew(ctx context.Context, args []string) {
	var name, fnName, argText string
	switch len(args) {
	case 2:
		name, fnName, argText = args[0], DefaultFunction.String(), args[1]
	case 3:
		name, fnName, argText = args[0], args[1], args[2]
	default:
		r.printUsage("new <name> [fn] <arg>")
		return
	}

	// A missing group is reported ahead of any problem with the arguments.
	if _, ok := r.orch.Group(); !ok {
		r.printError(apperrors.ErrNoActiveGroup)
		return
	}
	fn, err := catalog.Parse(fnName)
	if err != nil {
		r.printError(err)
		return
	}
	arg, err := strconv.Atoi(argText)
	if err != nil {
		r.printError(fmt.Errorf("invalid argument %q: must be an integer", argText))
		return
	}

	if err := r.orch.AddTask(ctx, name, fn, arg); err != nil {
		r.printError(err)
		return
	}
	fmt.Fprintf(r.out, "Added component: %s computing %s(%d)\n", ui.Paint(ui.ColorPrimary(), name), fn, arg)
}

func (r *REPL) cmdStatus(ctx context.Context) {
	statuses, err := r.orch.PollStatus(ctx)
	if err != nil {
		r.printError(err)
		return
	}
	r.presenter.PresentStatuses(statuses, r.out)
}

func (r *REPL) cmdRun(ctx context.Context) {
	if _, ok := r.orch.Group(); !ok {
		r.printError(apperrors.ErrNoActiveGroup)
		return
	}
	s := newSpinner(r.out)
	s.UpdateSuffix(" waiting for components")
	s.Start()
	statuses, err := r.orch.RunAll(ctx, spinnerProgress{spinner: s})
	s.Stop()
	if errors.Is(err, registry.ErrSealed) {
		// The cancellation handler reports the killed workers.
		return
	}

	r.presenter.PresentStatuses(statuses, r.out)
	if err != nil {
		r.printError(err)
	}
}

func (r *REPL) cmdSummary() {
	results, err := r.orch.Summary()
	if err != nil {
		r.printError(err)
		return
	}
	g, _ := r.orch.Group()
	r.presenter.PresentSummary(g, results, r.out)
}

func (r *REPL) cmdClear(ctx context.Context) {
	PresentKilled(r.orch.Clear(ctx), r.out)
	fmt.Fprintln(r.out, "Cleared all components.")
}

func (r *REPL) cmdWatch(ctx context.Context) {
	if r.config.Watch == nil {
		r.printError(errors.New("watch is not available in this session"))
		return
	}
	if _, ok := r.orch.Group(); !ok {
		r.printError(apperrors.ErrNoActiveGroup)
		return
	}
	if err := r.config.Watch(ctx); err != nil {
		r.printError(err)
	}
}

func (r *REPL) printUsage(usage string) {
	fmt.Fprintf(r.errOut, "%s\n", ui.Paint(ui.ColorError(), "Usage: "+usage))
}

func (r *REPL) printError(err error) {
	fmt.Fprintf(r.errOut, "%s\n", ui.Paint(ui.ColorError(), "Error: "+err.Error()))
}
