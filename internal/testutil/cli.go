// Package testutil provides shared test utilities: an in-memory content API
// and a harness for running CLI commands in isolation.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notionat/cmd/notionat/cmd"
	"notionat/internal/credentials"
)

// TestNow is the fixed clock used by the CLI harness.
var TestNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string

	API     *FakeAPI
	Keyring *credentials.MockKeyring
}

// NewCLITest creates a CLI test helper backed by a FakeAPI, a mock keyring and
// a SQLite store in a temp dir, so state persists across Execute calls.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	c := &CLITest{
		t:          t,
		tmpDir:     tmpDir,
		configPath: filepath.Join(tmpDir, "config.yaml"),
		API:        NewFakeAPI(),
		Keyring:    credentials.NewMockKeyring(),
	}
	c.SetFullConfig(c.defaultConfig())

	c.cfg = &cmd.Config{
		ConfigPath: c.configPath,
		Keyring:    c.Keyring,
		Getenv:     func(string) string { return "" },
		API:        c.API,
		Stdin:      strings.NewReader(""),
		Now:        func() time.Time { return TestNow },
	}
	return c
}

func (c *CLITest) defaultConfig() string {
	return fmt.Sprintf(`# test config
store:
  driver: sqlite
  path: %s
repos:
  roots:
    - %s
  max_depth: 3
  watch_debounce: 50ms
`, filepath.Join(c.tmpDir, "cache.db"), c.ReposDir())
}

// Config returns the CLI config, for tests that need to adjust injected dependencies.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the test's temp directory.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ReposDir is the single repos root configured for the test.
func (c *CLITest) ReposDir() string {
	return filepath.Join(c.tmpDir, "repos")
}

// ConfigPath returns the path of the test config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// SetFullConfig replaces the config file.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// AppendConfig adds YAML to the end of the config file.
func (c *CLITest) AppendConfig(yamlContent string) {
	c.t.Helper()
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		c.t.Fatalf("failed to read config file: %v", err)
	}
	c.SetFullConfig(string(data) + yamlContent)
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// MustExecuteJSON runs a command with --json and decodes stdout into v.
func (c *CLITest) MustExecuteJSON(v any, args ...string) {
	c.t.Helper()

	out := c.MustExecute(append(args, "--json")...)
	if err := json.Unmarshal([]byte(out), v); err != nil {
		c.t.Fatalf("invalid JSON output %q: %v", out, err)
	}
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}
