package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// resetLogger swaps in a fresh singleton writing to buf.
func resetLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	once = sync.Once{}
	loggerInstance = nil
	buf := &bytes.Buffer{}
	GetLogger().SetOutput(buf)
	t.Cleanup(func() {
		once = sync.Once{}
		loggerInstance = nil
	})
	return buf
}

// TestGetLogger verifies singleton pattern - same instance returned
func TestGetLogger(t *testing.T) {
	if GetLogger() != GetLogger() {
		t.Error("GetLogger() should return same singleton instance")
	}
}

func TestLoggerDefaultVerboseMode(t *testing.T) {
	resetLogger(t)
	if GetLogger().IsVerbose() {
		t.Error("Logger should have verbose=false by default")
	}
}

func TestSetVerboseMode(t *testing.T) {
	resetLogger(t)

	SetVerboseMode(true)
	if !GetLogger().IsVerbose() {
		t.Error("SetVerboseMode(true) should enable verbose mode")
	}
	SetVerboseMode(false)
	if GetLogger().IsVerbose() {
		t.Error("SetVerboseMode(false) should disable verbose mode")
	}
}

// TestDebugOnlyShownWhenVerbose verifies debug output is gated on verbose mode.
func TestDebugOnlyShownWhenVerbose(t *testing.T) {
	buf := resetLogger(t)

	Debugf("refreshing %s", "USERS")
	if buf.Len() != 0 {
		t.Errorf("debug output shown without verbose: %q", buf.String())
	}

	SetVerboseMode(true)
	Debugf("refreshing %s", "USERS")
	out := buf.String()
	if !strings.Contains(out, "DEBUG") || !strings.Contains(out, "refreshing USERS") {
		t.Errorf("verbose debug output = %q", out)
	}
}

func TestLevelsAlwaysShown(t *testing.T) {
	buf := resetLogger(t)

	Infof("info %d", 1)
	Warnf("warn %d", 2)
	Errorf("error %d", 3)

	out := buf.String()
	for _, want := range []string{"INFO", "info 1", "WARN", "warn 2", "ERROR", "error 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestMessageWithoutArgsIsNotFormatted(t *testing.T) {
	buf := resetLogger(t)
	GetLogger().Info("100% cached")
	if !strings.Contains(buf.String(), "100% cached") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWithAddsFields(t *testing.T) {
	buf := resetLogger(t)
	GetLogger().With("key", "PAGES_DATABASE_x").Info("refresh failed")
	if !strings.Contains(buf.String(), "PAGES_DATABASE_x") {
		t.Errorf("structured field missing: %q", buf.String())
	}
}

func TestLoggerThreadSafety(t *testing.T) {
	resetLogger(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			SetVerboseMode(i%2 == 0)
			Debugf("message %d", i)
			_ = GetLogger().IsVerbose()
		}(i)
	}
	wg.Wait()
}

func TestLogToFile(t *testing.T) {
	resetLogger(t)
	path := filepath.Join(t.TempDir(), "logs", "tui.log")

	closer, err := LogToFile(path)
	if err != nil {
		t.Fatalf("LogToFile error: %v", err)
	}
	Infof("written to file")
	GetLogger().Sync()
	_ = closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}
