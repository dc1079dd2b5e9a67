// Package config parses command-line flags, COMPMGR_* environment
// variables and an optional YAML file into an AppConfig.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/agbru/compmgr/internal/errors"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "COMPMGR_"

// Defaults.
const (
	DefaultLogLevel      = "warn"
	DefaultWatchInterval = 250 * time.Millisecond
	MinWatchInterval     = 10 * time.Millisecond
)

// SupportedShells lists the shells --completion can generate for.
var SupportedShells = []string{"bash", "zsh", "fish", "powershell"}

// AppConfig aggregates the application's configuration.
type AppConfig struct {
	// LogLevel is a zerolog level name: debug, info, warn, error, disabled.
	LogLevel string
	// LogFile, when set, sends JSON logs to a rotating file instead of
	// the console.
	LogFile string
	// NoColor disables ANSI colors in REPL and dashboard output.
	NoColor bool
	// MetricsAddr enables the metrics listener when non-empty.
	MetricsAddr string
	// WatchInterval is the dashboard polling period.
	WatchInterval time.Duration
	// Group, when set, is created before the first prompt.
	Group string
	// Completion names a shell; the completion script is printed and the
	// program exits.
	Completion string
	// ShowVersion prints version information and exits.
	ShowVersion bool
	// ConfigFile is the YAML file the other fields were partly read from.
	ConfigFile string
}

// Validate checks the semantic consistency of the configuration.
func (c AppConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return apperrors.NewConfigError("invalid log level %q", c.LogLevel)
	}
	if c.WatchInterval < MinWatchInterval {
		return apperrors.NewConfigError("watch interval must be at least %s, got %s", MinWatchInterval, c.WatchInterval)
	}
	if c.Completion != "" && !slices.Contains(SupportedShells, c.Completion) {
		return apperrors.NewConfigError("unsupported shell %q (supported: %s)", c.Completion, strings.Join(SupportedShells, ", "))
	}
	if c.Group != "" && strings.TrimSpace(c.Group) == "" {
		return apperrors.NewConfigError("group name must not be blank")
	}
	return nil
}

// ParseConfig parses args (without the program name). Values from the
// configuration file, then environment overrides, apply to every flag
// not given on the command line.
//
// Parameters:
//   - programName: Used in usage output.
//   - args: The command-line arguments.
//   - errorWriter: Receives flag parsing errors and usage.
//
// Returns:
//   - AppConfig: The validated configuration.
//   - error: flag.ErrHelp when -h was given, or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	fs.Usage = func() {
		fmt.Fprintf(errorWriter, "Usage: %s [flags]\n\nInteractive manager for isolated computation workers.\n\nFlags:\n", programName)
		fs.PrintDefaults()
	}

	config := AppConfig{}
	fs.StringVar(&config.ConfigFile, "config", "", "Read defaults from this YAML file.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error, disabled).")
	fs.StringVar(&config.LogFile, "log-file", "", "Write JSON logs to this file, rotated by size.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address (e.g. 127.0.0.1:9464).")
	fs.DurationVar(&config.WatchInterval, "watch-interval", DefaultWatchInterval, "Refresh period of the watch dashboard.")
	fs.StringVar(&config.Group, "group", "", "Create this group at startup.")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for the given shell and exit.")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")
	fs.BoolVar(&config.ShowVersion, "V", false, "Shorthand for --version.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if path := configPath(&config, fs); path != "" {
		fc, err := loadConfigFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		config.ConfigFile = path
		applyFile(&config, fc, fs)
	}
	applyEnvOverrides(&config, fs)
	if _, ok := os.LookupEnv("NO_COLOR"); ok && !isFlagSet(fs, "no-color") {
		config.NoColor = true
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	if err := config.Validate(); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}
