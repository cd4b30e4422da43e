package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTeeHandlerLevels(t *testing.T) {
	var terminal, file bytes.Buffer

	handler := newTeeHandler(
		slog.NewTextHandler(&terminal, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(handler)

	logger.Debug("loading source")
	logger.Info("playback started")
	logger.Warn("preload incomplete")
	logger.Error("failed to load source")

	for _, msg := range []string{"loading source", "playback started", "preload incomplete", "failed to load source"} {
		if !strings.Contains(file.String(), msg) {
			t.Errorf("file should contain %q, got: %s", msg, file.String())
		}
	}
	for _, msg := range []string{"loading source", "playback started"} {
		if strings.Contains(terminal.String(), msg) {
			t.Errorf("terminal should not contain %q, got: %s", msg, terminal.String())
		}
	}
	for _, msg := range []string{"preload incomplete", "failed to load source"} {
		if !strings.Contains(terminal.String(), msg) {
			t.Errorf("terminal should contain %q, got: %s", msg, terminal.String())
		}
	}
}

func TestTeeHandlerEnabled(t *testing.T) {
	handler := newTeeHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	testCases := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, true},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tc := range testCases {
		t.Run(tc.level.String(), func(t *testing.T) {
			if got := handler.Enabled(context.Background(), tc.level); got != tc.want {
				t.Errorf("Enabled(%s) = %v, want %v", tc.level, got, tc.want)
			}
		})
	}
}

func TestTeeHandlerAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(newTeeHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)).With("session_id", "abc").WithGroup("engine")

	logger.Info("crossfade started", "channel", "music")

	for name, out := range map[string]string{"first": a.String(), "second": b.String()} {
		if !strings.Contains(out, "session_id=abc") {
			t.Errorf("%s handler lost attrs: %s", name, out)
		}
		if !strings.Contains(out, "engine.channel=music") {
			t.Errorf("%s handler lost group: %s", name, out)
		}
	}
}

func TestTeeHandlerSingle(t *testing.T) {
	inner := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if got := newTeeHandler(inner); got != slog.Handler(inner) {
		t.Errorf("a single handler should be used directly, got %T", got)
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func TestTeeHandlerKeepsWritingAfterFailure(t *testing.T) {
	var out bytes.Buffer
	handler := newTeeHandler(
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&out, nil),
	)

	err := handler.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still here", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected the failure to be reported, got %v", err)
	}
	if !strings.Contains(out.String(), "still here") {
		t.Errorf("second handler should still receive the record, got: %s", out.String())
	}
}
