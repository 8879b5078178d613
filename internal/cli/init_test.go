package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FINTRACK_CLI_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINTRACK_CLI_TEST", "")
	os.Unsetenv("FINTRACK_CLI_TEST")

	if err := LoadEnvFile(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("FINTRACK_CLI_TEST"); got != "from-file" {
		t.Errorf("FINTRACK_CLI_TEST = %q", got)
	}
}

func TestLoadEnvFile_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINTRACK_CLI_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINTRACK_CLI_TEST", "from-env")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("FINTRACK_CLI_TEST"); got != "from-env" {
		t.Errorf("FINTRACK_CLI_TEST = %q, want from-env", got)
	}
}

func TestSetupLogger(t *testing.T) {
	if _, err := SetupLogger("verbose"); err == nil {
		t.Error("unknown level accepted")
	}
	logger, err := SetupLogger("debug")
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	if logger.Component() != "app" {
		t.Errorf("component = %q", logger.Component())
	}
}
