package config

import (
	"flag"
	"os"
	"testing"
)

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestIsFlagSetAny(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("version", false, "")
	fs.Bool("V", false, "")
	fs.String("group", "", "")
	if err := fs.Parse([]string{"-V"}); err != nil {
		t.Fatal(err)
	}
	if !isFlagSetAny(fs, "version", "V") {
		t.Error("isFlagSetAny(version, V) = false, want true")
	}
	if isFlagSet(fs, "group") {
		t.Error("isFlagSet(group) = true for an unset flag")
	}
}
