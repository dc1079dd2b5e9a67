package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/agbru/compmgr/internal/errors"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compmgr.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfigFile(t *testing.T) {
	unsetEnv(t, "NO_COLOR")
	path := writeConfigFile(t, `
log_level: info
log_file: /tmp/compmgr.log
no_color: true
metrics_addr: 127.0.0.1:9464
watch_interval: 750ms
group: nightly
`)

	cfg, err := ParseConfig("compmgr", []string{"--config", path}, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	want := AppConfig{
		LogLevel:      "info",
		LogFile:       "/tmp/compmgr.log",
		NoColor:       true,
		MetricsAddr:   "127.0.0.1:9464",
		WatchInterval: 750 * time.Millisecond,
		Group:         "nightly",
		ConfigFile:    path,
	}
	if cfg != want {
		t.Errorf("ParseConfig() = %+v, want %+v", cfg, want)
	}
}

func TestParseConfigFilePrecedence(t *testing.T) {
	unsetEnv(t, "NO_COLOR")
	path := writeConfigFile(t, "log_level: info\ngroup: from-file\nmetrics_addr: ':7000'\n")
	t.Setenv(EnvPrefix+"CONFIG", path)
	t.Setenv(EnvPrefix+"METRICS_ADDR", ":9000")

	cfg, err := ParseConfig("compmgr", []string{"--group", "from-flag"}, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Group != "from-flag" {
		t.Errorf("Group = %q, flag should win over file", cfg.Group)
	}
	if cfg.MetricsAddr != ":9000" {
		t.Errorf("MetricsAddr = %q, env should win over file", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want the file value", cfg.LogLevel)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestParseConfigEmptyFile(t *testing.T) {
	unsetEnv(t, "NO_COLOR")
	path := writeConfigFile(t, "")
	cfg, err := ParseConfig("compmgr", []string{"--config", path}, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel || cfg.WatchInterval != DefaultWatchInterval {
		t.Errorf("empty file changed defaults: %+v", cfg)
	}
}

func TestParseConfigFileErrors(t *testing.T) {
	unsetEnv(t, "NO_COLOR")
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "absent.yaml")
		}},
		{"unknown key", func(t *testing.T) string {
			return writeConfigFile(t, "log_levl: debug\n")
		}},
		{"malformed yaml", func(t *testing.T) string {
			return writeConfigFile(t, "group: [unterminated\n")
		}},
		{"bad duration", func(t *testing.T) string {
			return writeConfigFile(t, "watch_interval: soon\n")
		}},
		{"invalid value", func(t *testing.T) string {
			return writeConfigFile(t, "log_level: loud\n")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("compmgr", []string{"--config", tt.path(t)}, io.Discard)
			var ce apperrors.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("ParseConfig() error = %v, want ConfigError", err)
			}
		})
	}
}
