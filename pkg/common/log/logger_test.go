package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestStandardLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf), WithLevel(LevelDebug))

	cases := []struct {
		emit  func(string, ...interface{})
		level string
	}{
		{logger.Debug, "[DEBUG]"},
		{logger.Info, "[INFO]"},
		{logger.Warn, "[WARN]"},
		{logger.Error, "[ERROR]"},
	}
	for _, c := range cases {
		buf.Reset()
		c.emit("closing %d ranges", 3)
		out := buf.String()
		if !strings.Contains(out, c.level) || !strings.Contains(out, "closing 3 ranges") {
			t.Errorf("expected %s entry, got: %s", c.level, out)
		}
	}

	buf.Reset()
	logger.SetLevel(LevelWarn)
	logger.Info("should not appear")
	logger.Warn("close failed")
	out := buf.String()
	if strings.Contains(out, "should not appear") || !strings.Contains(out, "close failed") {
		t.Errorf("level filtering failed, got: %s", out)
	}
	if logger.GetLevel() != LevelWarn {
		t.Errorf("expected LevelWarn, got %v", logger.GetLevel())
	}
}

func TestStandardLoggerFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf))

	logger.WithFields(map[string]interface{}{
		"ranges":    4,
		"component": "keyrange",
		"iterator":  "union",
	}).Info("merge built")

	out := buf.String()
	want := " component=keyrange iterator=union ranges=4 merge built"
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got: %s", want, out)
	}

	// Derived loggers must not leak fields back into the parent.
	buf.Reset()
	logger.Info("plain")
	if strings.Contains(buf.String(), "component=") {
		t.Errorf("parent logger picked up child fields: %s", buf.String())
	}
}

func TestWithInitialFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(
		WithOutput(&buf),
		WithInitialFields(map[string]interface{}{"component": "saiq"}),
	)
	logger.WithField("range", "a").Warn("dropped")

	out := buf.String()
	if !strings.Contains(out, "component=saiq range=a dropped") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	if logger.GetLevel() <= LevelFatal {
		t.Errorf("discard logger should filter every level, got %v", logger.GetLevel())
	}
}

func TestDefaultLogger(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	var buf bytes.Buffer
	SetDefaultLogger(NewStandardLogger(WithOutput(&buf), WithLevel(LevelInfo)))

	Info("global info message")
	if !strings.Contains(buf.String(), "[INFO]") || !strings.Contains(buf.String(), "global info message") {
		t.Errorf("global info logging failed, got: %s", buf.String())
	}
	buf.Reset()

	WithField("global", true).Info("global with field")
	if !strings.Contains(buf.String(), "global=true") {
		t.Errorf("global logging with field failed, got: %s", buf.String())
	}
	buf.Reset()

	SetLevel(LevelError)
	Warn("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected no output below level, got: %s", buf.String())
	}
}
