package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/compmgr/internal/errors"
)

// fileConfig mirrors the YAML configuration file. A nil field leaves the
// flag default untouched.
type fileConfig struct {
	LogLevel      *string        `yaml:"log_level"`
	LogFile       *string        `yaml:"log_file"`
	NoColor       *bool          `yaml:"no_color"`
	MetricsAddr   *string        `yaml:"metrics_addr"`
	WatchInterval *time.Duration `yaml:"watch_interval"`
	Group         *string        `yaml:"group"`
}

// configPath returns the configuration file named by --config, falling
// back to COMPMGR_CONFIG. An empty result means no file.
func configPath(config *AppConfig, fs *flag.FlagSet) string {
	if isFlagSet(fs, "config") {
		return config.ConfigFile
	}
	return os.Getenv(EnvPrefix + "CONFIG")
}

// loadConfigFile decodes path. Unknown keys are rejected so that typos
// surface instead of being ignored.
func loadConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	f, err := os.Open(path)
	if err != nil {
		return fc, apperrors.NewConfigError("cannot read config file: %v", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, apperrors.NewConfigError("invalid config file %s: %v", path, err)
	}
	return fc, nil
}

// applyFile copies the values present in fc for flags that were not set
// on the command line. It runs before applyEnvOverrides, which gives
// CLI flags > environment > file > defaults.
func applyFile(config *AppConfig, fc fileConfig, fs *flag.FlagSet) {
	if fc.LogLevel != nil && !isFlagSet(fs, "log-level") {
		config.LogLevel = *fc.LogLevel
	}
	if fc.LogFile != nil && !isFlagSet(fs, "log-file") {
		config.LogFile = *fc.LogFile
	}
	if fc.NoColor != nil && !isFlagSet(fs, "no-color") {
		config.NoColor = *fc.NoColor
	}
	if fc.MetricsAddr != nil && !isFlagSet(fs, "metrics-addr") {
		config.MetricsAddr = *fc.MetricsAddr
	}
	if fc.WatchInterval != nil && !isFlagSet(fs, "watch-interval") {
		config.WatchInterval = *fc.WatchInterval
	}
	if fc.Group != nil && !isFlagSet(fs, "group") {
		config.Group = *fc.Group
	}
}
