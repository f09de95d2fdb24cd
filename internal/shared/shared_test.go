package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to buffer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log output to contain key/value pair, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "mazeed.log")

		logger, closer, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Warn("written to file")
		closer.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written to file") {
			t.Errorf("log file missing entry: %q", string(data))
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		tc := []struct {
			in   string
			want log.Level
		}{
			{"", log.InfoLevel},
			{"debug", log.DebugLevel},
			{"warn", log.WarnLevel},
			{"nonsense", log.InfoLevel},
		}

		for _, tt := range tc {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})
}

func TestIdentifiers(t *testing.T) {
	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct ids")
		}
	})

	t.Run("NewState", func(t *testing.T) {
		a, err := NewState()
		if err != nil {
			t.Fatalf("NewState() error = %v", err)
		}
		b, _ := NewState()

		if len(a) != 24 {
			t.Errorf("expected state of length 24, got %d", len(a))
		}
		if a == b {
			t.Error("expected distinct state tokens")
		}
		for _, r := range a {
			if !strings.ContainsRune(stateAlphabet, r) {
				t.Errorf("unexpected rune %q in state", r)
			}
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(compact) != `{"a":1}` {
		t.Errorf("compact = %s", compact)
	}

	pretty, _ := MarshalJSON(v, true)
	if !strings.Contains(string(pretty), "\n  \"a\": 1") {
		t.Errorf("pretty output not indented: %s", pretty)
	}
}
