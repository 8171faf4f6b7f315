package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/ninthball/pkg/config"
)

func newJSON(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&config.Config{Env: "test", LogLevel: level, LogFormat: "json"}, &buf), &buf
}

// lines JSON 로그 한 줄씩 디코드
func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew_Fields(t *testing.T) {
	log, buf := newJSON("info")
	log.Info("Scenario engine ready")

	got := lines(t, buf)
	if len(got) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(got))
	}
	for key, want := range map[string]string{
		"service": "ninthball",
		"env":     "test",
		"level":   "info",
		"message": "Scenario engine ready",
	} {
		if got[0][key] != want {
			t.Errorf("%s = %v, want %q", key, got[0][key], want)
		}
	}
	if _, ok := got[0]["time"]; !ok {
		t.Error("Expected timestamp")
	}
}

func TestNew_LevelIsPerInstance(t *testing.T) {
	before := zerolog.GlobalLevel()

	debug, debugBuf := newJSON("debug")
	quiet, quietBuf := newJSON("error")

	debug.Debug("phase finished")
	quiet.Debug("phase finished")
	quiet.Warn("cache write failed")
	quiet.Error("build failed")

	if n := len(lines(t, debugBuf)); n != 1 {
		t.Errorf("debug logger wrote %d lines, want 1", n)
	}
	got := lines(t, quietBuf)
	if len(got) != 1 || got[0]["message"] != "build failed" {
		t.Errorf("error logger wrote %v, want only the error line", got)
	}
	if zerolog.GlobalLevel() != before {
		t.Errorf("global level changed from %v to %v", before, zerolog.GlobalLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithFields_SortedKeys(t *testing.T) {
	log, buf := newJSON("info")
	log.WithFields(map[string]interface{}{
		"years":      30,
		"generator":  "regime_bootstrap",
		"iterations": 10000,
	}).Info("Simulation finished")

	out := buf.String()
	g, i, y := strings.Index(out, `"generator"`), strings.Index(out, `"iterations"`), strings.Index(out, `"years"`)
	if g < 0 || i < 0 || y < 0 {
		t.Fatalf("missing fields in %s", out)
	}
	if !(g < i && i < y) {
		t.Errorf("fields not in key order: %s", out)
	}

	got := lines(t, buf)[0]
	if got["iterations"] != float64(10000) {
		t.Errorf("iterations = %v", got["iterations"])
	}
}

func TestWithError_Component(t *testing.T) {
	log, buf := newJSON("info")
	log.Component("engine").
		WithError(errors.New("redis connection timeout")).
		WithField("key", "regime-model:abc").
		Warn("Model cache read failed")

	got := lines(t, buf)[0]
	if got["component"] != "engine" {
		t.Errorf("component = %v", got["component"])
	}
	if got["error"] != "redis connection timeout" {
		t.Errorf("error = %v", got["error"])
	}
	if got["key"] != "regime-model:abc" {
		t.Errorf("key = %v", got["key"])
	}

	// 하위 로거는 부모를 바꾸지 않음
	buf.Reset()
	log.Info("plain")
	if _, ok := lines(t, buf)[0]["component"]; ok {
		t.Error("parent logger picked up child field")
	}
}

func TestWarnf(t *testing.T) {
	log, buf := newJSON("info")
	log.Warnf("k-means stopped at max iterations (%d)", 100)

	if got := lines(t, buf)[0]["message"]; got != "k-means stopped at max iterations (100)" {
		t.Errorf("message = %v", got)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{LogLevel: "info", LogFormat: "console"}, &buf)
	log.Info("History loaded")

	out := buf.String()
	if !strings.Contains(out, "History loaded") {
		t.Errorf("missing message: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console format wrote JSON: %q", out)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithFields(map[string]interface{}{"a": 1}).WithError(errors.New("x")).Error("discarded")
	log.Component("api").Debug("discarded")
}
