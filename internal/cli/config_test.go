package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	errs "github.com/adonovan/spaghetti/pkg/errors"
)

// unsetenv removes k for the duration of the test.
func unsetenv(t *testing.T, k string) {
	t.Setenv(k, "")
	os.Unsetenv(k)
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	unsetenv(t, envAddr)
	unsetenv(t, envStore)

	path := writeFile(t, "spaghetti.toml", `
addr = "localhost:9000"
store = "memory://"
dir = "/src/app"
tests = true
log_level = "debug"
`)
	cfg, err := loadConfig(path, "")
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Addr: "localhost:9000", Store: "memory://", Dir: "/src/app", Tests: true, LogLevel: "debug"}
	if cfg != want {
		t.Errorf("loadConfig = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	unsetenv(t, envAddr)
	unsetenv(t, envStore)

	path := writeFile(t, "spaghetti.toml", "addr = \"localhost:9000\"\nstore = \"memory://\"\n")
	dotenv := writeFile(t, ".env", "SPAGHETTI_ADDR=0.0.0.0:8080\nSPAGHETTI_STORE=redis://dotenv:6379/0\n")
	t.Setenv(envStore, "redis://env:6379/0")

	cfg, err := loadConfig(path, dotenv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %q, want the .env value", cfg.Addr)
	}
	if cfg.Store != "redis://env:6379/0" {
		t.Errorf("Store = %q, want the process environment value", cfg.Store)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	unsetenv(t, envAddr)
	unsetenv(t, envStore)
	dir := t.TempDir()

	// The default file and the dotenv file are optional.
	t.Chdir(dir)
	cfg, err := loadConfig("", filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("loadConfig without files: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("cfg = %+v, want zero", cfg)
	}

	// An explicit file is required.
	_, err = loadConfig(filepath.Join(dir, "none.toml"), "")
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: err = %v", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeFile(t, "bad.toml", "addr = \n")
	if _, err := loadConfig(path, ""); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestParseLevel(t *testing.T) {
	if level, err := parseLevel("debug"); err != nil || level != log.DebugLevel {
		t.Errorf("parseLevel(debug) = %v, %v", level, err)
	}
	if _, err := parseLevel("loud"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("parseLevel(loud) err = %v", err)
	}
}

func TestFlagPrecedence(t *testing.T) {
	cmd := &cobra.Command{}
	addr := cmd.Flags().String("addr", "default", "")
	tests := cmd.Flags().Bool("test", false, "")

	if got := stringFlag(cmd, "addr", *addr, ""); got != "default" {
		t.Errorf("unset flag, nothing configured = %q", got)
	}
	if got := stringFlag(cmd, "addr", *addr, "configured"); got != "configured" {
		t.Errorf("unset flag = %q, want configured", got)
	}
	if got := boolFlag(cmd, "test", *tests, true); !got {
		t.Error("unset bool flag ignored configured true")
	}

	if err := cmd.Flags().Set("addr", "flag"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("test", "false"); err != nil {
		t.Fatal(err)
	}
	if got := stringFlag(cmd, "addr", *addr, "configured"); got != "flag" {
		t.Errorf("set flag = %q, want flag", got)
	}
	if got := boolFlag(cmd, "test", *tests, true); got {
		t.Error("explicit --test=false lost to configuration")
	}
}
