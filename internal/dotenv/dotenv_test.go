package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir switches the working directory for the test and restores it on
// cleanup, matching t.Chdir which needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

func TestLoadReadsDotEnvFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "VOCALIS_API_KEY=sk-local-dev\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	chdir(t, dir)
	t.Setenv("VOCALIS_API_KEY", "")
	os.Unsetenv("VOCALIS_API_KEY")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("VOCALIS_API_KEY"); got != "sk-local-dev" {
		t.Fatalf("VOCALIS_API_KEY=%q, want the .env value", got)
	}
}

func TestLoadWithoutDotEnvIsNoop(t *testing.T) {
	chdir(t, t.TempDir())
	if err := Load(); err != nil {
		t.Fatalf("Load with no .env: %v", err)
	}
}

func TestLoadFileParsing(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "vocalis.env")
	content := "" +
		"# local credentials, never commit\n" +
		"VOCALIS_API_KEY=sk-test-123\n" +
		"VOCALIS_BASE_URL=\"wss://staging.vocalis.ai\"\n" +
		"export VOCALIS_PROJECT='p-42'\n" +
		"not a pair\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// A value already in the environment wins over the file.
	t.Setenv("VOCALIS_API_KEY", "sk-from-shell")

	if err := LoadFile(envPath); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := os.Getenv("VOCALIS_API_KEY"); got != "sk-from-shell" {
		t.Fatalf("VOCALIS_API_KEY=%q, want the pre-set value kept", got)
	}
	if got := os.Getenv("VOCALIS_BASE_URL"); got != "wss://staging.vocalis.ai" {
		t.Fatalf("VOCALIS_BASE_URL=%q, want quotes stripped", got)
	}
	if got := os.Getenv("VOCALIS_PROJECT"); got != "p-42" {
		t.Fatalf("VOCALIS_PROJECT=%q, want the export prefix handled", got)
	}
}
