// Package app wires configuration, the orchestrator, the cancellation
// handler, the optional metrics listener and the interactive session.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/compmgr/internal/cli"
	"github.com/agbru/compmgr/internal/config"
	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/logging"
	"github.com/agbru/compmgr/internal/metrics"
	"github.com/agbru/compmgr/internal/orchestration"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/server"
	"github.com/agbru/compmgr/internal/supervisor"
	"github.com/agbru/compmgr/internal/tui"
	"github.com/agbru/compmgr/internal/ui"
	"github.com/agbru/compmgr/internal/worker"
)

const shutdownTimeout = 2 * time.Second

// Application represents the compmgr application instance.
type Application struct {
	Config      config.AppConfig
	ProgramName string
	ErrWriter   io.Writer
	In          io.Reader
	Spawner     worker.Spawner

	supervisorOpts []supervisor.Option
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithSpawner replaces the process spawner, mainly for tests.
func WithSpawner(s worker.Spawner) AppOption {
	return func(a *Application) { a.Spawner = s }
}

// WithInput sets where commands are read from. The default is stdin.
func WithInput(in io.Reader) AppOption {
	return func(a *Application) { a.In = in }
}

// WithSupervisorOptions passes options through to the cancellation handler.
func WithSupervisorOptions(opts ...supervisor.Option) AppOption {
	return func(a *Application) { a.supervisorOpts = append(a.supervisorOpts, opts...) }
}

// New creates a new Application instance by parsing command-line arguments.
// args includes the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, In: os.Stdin, ProgramName: "compmgr"}
	for _, opt := range opts {
		opt(app)
	}

	var cmdArgs []string
	if len(args) > 0 {
		app.ProgramName = filepath.Base(args[0])
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(app.ProgramName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)
	logger := a.newLogger()
	if c, ok := logger.(io.Closer); ok {
		defer c.Close()
	}

	spawner, err := a.spawner()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	reg := registry.New()
	m := metrics.New(func() int { return len(reg.Live()) })
	orch := orchestration.New(spawner,
		orchestration.WithRegistry(reg),
		orchestration.WithLogger(logger),
		orchestration.WithMetrics(m),
	)

	supOpts := append([]supervisor.Option{supervisor.WithLogger(logger)}, a.supervisorOpts...)
	sup := supervisor.New(reg, a.ErrWriter, supOpts...)
	sup.Start()
	defer sup.Stop()

	if a.Config.MetricsAddr != "" {
		srv := server.New(a.Config.MetricsAddr, m, logger, server.WithHealth(healthFunc(orch)))
		if err := srv.Start(); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
			return apperrors.ExitErrorConfig
		}
		fmt.Fprintf(a.ErrWriter, "Metrics available at http://%s/metrics\n", srv.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", logging.Err(err))
			}
		}()
	}

	if a.Config.Group != "" {
		if err := orch.CreateGroup(a.Config.Group); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
			return apperrors.ExitErrorConfig
		}
	}

	repl := cli.NewREPL(orch, cli.REPLConfig{Watch: a.watch(orch, sup)})
	repl.SetInput(a.In)
	repl.SetOutput(out)
	repl.SetErrorOutput(a.ErrWriter)
	repl.Start(ctx)
	return apperrors.ExitSuccess
}

func (a *Application) spawner() (worker.Spawner, error) {
	if a.Spawner != nil {
		return a.Spawner, nil
	}
	ps, err := worker.NewProcessSpawner()
	if err != nil {
		return nil, err
	}
	ps.Stderr = a.ErrWriter
	return ps, nil
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.ProgramName); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// watch returns the REPL's dashboard command. Ctrl+C inside the dashboard
// is handed to the cancellation handler once the terminal is restored.
func (a *Application) watch(orch *orchestration.Orchestrator, sup *supervisor.Supervisor) func(context.Context) error {
	return func(ctx context.Context) error {
		outcome, err := tui.Run(ctx, orch, tui.Options{
			Interval:   a.Config.WatchInterval,
			Version:    Version,
			CancelHook: sup.SetCancelHook,
		})
		if err != nil {
			return err
		}
		if outcome.Interrupted {
			sup.Interrupt()
			<-sup.Done()
		}
		return nil
	}
}

func healthFunc(orch *orchestration.Orchestrator) server.HealthFunc {
	return func() server.Health {
		reg := orch.Registry()
		h := server.Health{
			Status:       "ok",
			Tasks:        reg.Len(),
			Live:         len(reg.Live()),
			ShuttingDown: reg.Sealed(),
		}
		if g, ok := orch.Group(); ok {
			h.Group = g.Name
			h.GroupID = g.ID.String()
		}
		if h.ShuttingDown {
			h.Status = "shutting down"
		}
		return h
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// fileLogger closes the rotating file behind a file-backed logger.
type fileLogger struct {
	*logging.ZerologAdapter
	io.Closer
}

// newLogger logs JSON to the rotating --log-file when one is configured
// and to the console otherwise.
func (a *Application) newLogger() logging.Logger {
	if a.Config.LogFile != "" {
		l, c := logging.NewFileLogger(a.Config.LogFile, "compmgr", a.Config.LogLevel)
		return fileLogger{ZerologAdapter: l, Closer: c}
	}
	return logging.NewConsoleLogger(a.ErrWriter, "compmgr", a.Config.LogLevel, a.Config.NoColor)
}
