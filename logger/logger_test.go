package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "info", want: slog.LevelInfo},
		{input: " WARN ", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "debug", want: slog.LevelDebug},
		{input: "", want: slog.LevelDebug},
		{input: "nonsense", want: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestErrorAttributeCarriesTrace(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(&buf, "debug")

	err := fmt.Errorf("calling provider: %w", errors.WithStack(errors.New("boom")))
	lgr.With(ERROR, err).Error("failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	group, ok := line[ERROR].(map[string]any)
	if !ok {
		t.Fatalf("error attribute = %#v, want group", line[ERROR])
	}
	if group["msg"] != "calling provider: boom" {
		t.Errorf("msg = %v", group["msg"])
	}
	trace, ok := group["trace"].([]any)
	if !ok || len(trace) == 0 {
		t.Errorf("trace = %#v, want non-empty list", group["trace"])
	}
}

func TestPlainErrorHasNoTrace(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(&buf, "debug")

	lgr.With(ERROR, fmt.Errorf("plain")).Warn("failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	group := line[ERROR].(map[string]any)
	if _, ok := group["trace"]; ok {
		t.Errorf("unexpected trace for an error without stack")
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(&buf, "warn")
	lgr.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
}
