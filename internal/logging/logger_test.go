package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestFieldHelpers tests the Field constructor functions.
func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("task", "alpha"), "task", "alpha"},
		{"Int", Int("pid", 4242), "pid", 4242},
		{"Uint64", Uint64("n", 18446744073709551615), "n", uint64(18446744073709551615)},
		{"Float64", Float64("value", 24.0), "value", 24.0},
		{"Duration", Duration("elapsed", time.Second), "elapsed", time.Second},
		{"Err nil", Err(nil), "error", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("%s().Key = %q, want %q", tt.name, tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("%s().Value = %v, want %v", tt.name, tt.field.Value, tt.value)
			}
		})
	}

	testErr := errors.New("pipe closed")
	if f := Err(testErr); f.Key != "error" || f.Value != testErr {
		t.Errorf("Err() = %+v, want error field carrying %v", f, testErr)
	}
}

// TestNewLogger tests the custom logger constructor.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "registry")
	logger.Info("reconciled")

	output := buf.String()
	if !strings.Contains(output, "registry") {
		t.Errorf("NewLogger should include component field, got: %s", output)
	}
	if !strings.Contains(output, "reconciled") {
		t.Errorf("NewLogger should include message, got: %s", output)
	}
}

// TestZerologAdapter_Levels checks each level method writes its level name.
func TestZerologAdapter_Levels(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l *ZerologAdapter)
		contains []string
	}{
		{"debug", func(l *ZerologAdapter) { l.Debug("spawned", Int("pid", 7)) }, []string{"debug", "spawned", "7"}},
		{"info", func(l *ZerologAdapter) { l.Info("dispatched", String("task", "a")) }, []string{"info", "dispatched", `"task":"a"`}},
		{"warn", func(l *ZerologAdapter) { l.Warn("abnormal exit", String("task", "b")) }, []string{"warn", "abnormal exit"}},
		{"error", func(l *ZerologAdapter) { l.Error("kill failed", errors.New("no such process")) }, []string{"error", "kill failed", "no such process"}},
		{"error nil", func(l *ZerologAdapter) { l.Error("warning", nil) }, []string{"warning", "error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel)))
			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got: %s", want, output)
				}
			}
		})
	}
}

// TestZerologAdapter_applyFields tests field application with all supported types.
func TestZerologAdapter_applyFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		contains string
	}{
		{"string field", Field{Key: "str", Value: "hello"}, "hello"},
		{"int field", Field{Key: "num", Value: 42}, "42"},
		{"int64 field", Field{Key: "big", Value: int64(9223372036854775807)}, "9223372036854775807"},
		{"uint64 field", Field{Key: "huge", Value: uint64(18446744073709551615)}, "18446744073709551615"},
		{"float64 field", Field{Key: "value", Value: 1.5}, "1.5"},
		{"error field", Field{Key: "err", Value: errors.New("oops")}, "oops"},
		{"bool field", Field{Key: "flag", Value: true}, "true"},
		{"interface field", Field{Key: "data", Value: struct{ X int }{X: 1}}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, "test").Info("test", tt.field)
			if output := buf.String(); !strings.Contains(output, tt.contains) {
				t.Errorf("applyFields should handle %s, output: %s", tt.name, output)
			}
		})
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "orchestrator").With(String("group", "g1"))
	logger.Info("created")
	if !strings.Contains(buf.String(), `"group":"g1"`) {
		t.Errorf("With should attach fields to every entry, got: %s", buf.String())
	}
}

func TestZerologAdapter_PrintfPrintln(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")

	logger.Printf("formatted %s %d", "message", 42)
	logger.Println("hello", "world")

	output := buf.String()
	if !strings.Contains(output, "formatted message 42") {
		t.Errorf("Printf should format message, got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("Println should join arguments, got: %s", output)
	}
}

func TestNewConsoleLogger_Level(t *testing.T) {
	tests := []struct {
		level    string
		wantInfo bool
		wantWarn bool
	}{
		{"debug", true, true},
		{"info", true, true},
		{"warn", false, true},
		{"bogus", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewConsoleLogger(&buf, "test", tt.level, true)
			logger.Info("info-line")
			logger.Warn("warn-line")
			out := buf.String()
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v (output %q)", got, tt.wantInfo, out)
			}
			if got := strings.Contains(out, "warn-line"); got != tt.wantWarn {
				t.Errorf("warn emitted = %v, want %v (output %q)", got, tt.wantWarn, out)
			}
		})
	}
}

func TestNop(t *testing.T) {
	Nop().Error("dropped", errors.New("x"))
}

// TestStdLoggerAdapter tests the StdLoggerAdapter methods.
func TestStdLoggerAdapter(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l *StdLoggerAdapter)
		contains []string
	}{
		{"info", func(l *StdLoggerAdapter) { l.Info("user action", String("user", "bob")) }, []string{"[INFO]", "user action", "user=bob"}},
		{"debug", func(l *StdLoggerAdapter) { l.Debug("trace", Int("line", 42)) }, []string{"[DEBUG]", "trace", "line=42"}},
		{"warn", func(l *StdLoggerAdapter) { l.Warn("slow") }, []string{"[WARN]", "slow"}},
		{"error", func(l *StdLoggerAdapter) { l.Error("db failed", errors.New("timeout"), String("db", "mysql")) }, []string{"[ERROR]", "db failed", "timeout", "mysql"}},
		{"printf", func(l *StdLoggerAdapter) { l.Printf("value is %d", 123) }, []string{"value is 123"}},
		{"println", func(l *StdLoggerAdapter) { l.Println("a", "b", "c") }, []string{"a b c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStdLoggerAdapter(log.New(&buf, "", 0)))
			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got: %s", want, output)
				}
			}
		})
	}
}

// TestLoggerInterface verifies both adapters implement the Logger interface.
func TestLoggerInterface(t *testing.T) {
	var buf bytes.Buffer
	var _ Logger = NewLogger(&buf, "test")
	var _ Logger = NewStdLoggerAdapter(log.New(&buf, "", 0))
}
