//go:build integration

package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

// TestMain builds the binary before running tests
func TestMain(m *testing.M) {
	binaryPath = filepath.Join(os.TempDir(), "sign-test")
	build := exec.Command("go", "build", "-o", binaryPath, ".")
	if err := build.Run(); err != nil {
		os.Exit(1)
	}

	code := m.Run()

	_ = os.Remove(binaryPath)
	os.Exit(code)
}

// runCommand runs the binary against a throwaway database with no API key
// in the environment.
func runCommand(t *testing.T, db string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, append([]string{"--db", db}, args...)...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "SIGN_API_KEY=", "OJP_API_KEY=", "SIGN_DB=")

	stdout, err := cmd.Output()
	stderr := ""
	exitCode := 0

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			stderr = string(exitErr.Stderr)
		}
	}

	return string(stdout), stderr, exitCode
}

func tempDB(t *testing.T) string {
	return filepath.Join(t.TempDir(), "sign.db")
}

func TestCLI_Version(t *testing.T) {
	stdout, _, exitCode := runCommand(t, tempDB(t), "--version")

	if exitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "sign version") {
		t.Errorf("Expected version output, got: %s", stdout)
	}
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCommand(t, tempDB(t), "--help")

	if exitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "sign runs a departure board") {
		t.Errorf("Expected help text, got: %s", stdout)
	}

	for _, cmd := range []string{"run", "simulate", "departures", "search", "lines", "config"} {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("Expected command '%s' in help output", cmd)
		}
	}
}

func TestCLI_SearchCommand_MissingQuery(t *testing.T) {
	_, stderr, exitCode := runCommand(t, tempDB(t), "search")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for missing query")
	}
	if stderr == "" {
		t.Error("Expected an error message on stderr")
	}
}

func TestCLI_SearchCommand_MissingAPIKey(t *testing.T) {
	_, stderr, exitCode := runCommand(t, tempDB(t), "search", "Bucheggplatz")

	if exitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(stderr, "sign config apikey") {
		t.Errorf("Expected API key hint, got: %s", stderr)
	}
}

func TestCLI_DeparturesCommand_NoStation(t *testing.T) {
	_, stderr, exitCode := runCommand(t, tempDB(t), "departures")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code without a configured stop")
	}
	if stderr == "" {
		t.Error("Expected an error message on stderr")
	}
}

func TestCLI_ConfigRoundTrip(t *testing.T) {
	db := tempDB(t)

	if _, stderr, code := runCommand(t, db, "config", "station", "8591123", "Zürich, Bucheggplatz"); code != 0 {
		t.Fatalf("config station failed (%d): %s", code, stderr)
	}
	if _, stderr, code := runCommand(t, db, "config", "apikey", "secret-token"); code != 0 {
		t.Fatalf("config apikey failed (%d): %s", code, stderr)
	}

	stdout, _, code := runCommand(t, db, "config", "show", "--json")
	if code != 0 {
		t.Fatalf("config show failed with %d", code)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(stdout), &values); err != nil {
		t.Fatalf("Expected JSON output, got: %s", stdout)
	}
	if values["st_id"] != "8591123" {
		t.Errorf("st_id = %q, want 8591123", values["st_id"])
	}
	if strings.Contains(stdout, "secret-token") {
		t.Error("API key should be masked")
	}

	if _, stderr, code := runCommand(t, db, "config", "reset", "--yes"); code != 0 {
		t.Fatalf("config reset failed (%d): %s", code, stderr)
	}
	stdout, _, _ = runCommand(t, db, "config", "show", "--json")
	values = nil
	_ = json.Unmarshal([]byte(stdout), &values)
	if values["st_id"] != "" {
		t.Errorf("st_id after reset = %q, want empty", values["st_id"])
	}
}

func TestCLI_ConfigLine_InvalidSlot(t *testing.T) {
	_, _, exitCode := runCommand(t, tempDB(t), "config", "line", "3", "11")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for line slot 3")
	}
}

func TestCLI_InvalidCommand(t *testing.T) {
	_, _, exitCode := runCommand(t, tempDB(t), "nonexistent")

	if exitCode == 0 {
		t.Error("Expected non-zero exit code for invalid command")
	}
}
