package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelRouter(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(&levelRouter{
		min:    slog.LevelInfo,
		stdout: slog.NewTextHandler(&out, nil),
		stderr: slog.NewTextHandler(&errOut, nil),
	})

	logger.Debug("hidden")
	logger.Info("hello", "user", 1)
	logger.Warn("careful")
	logger.Error("broken")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug message logged below minimum level")
	}
	if !strings.Contains(out.String(), "hello") || !strings.Contains(out.String(), "careful") {
		t.Errorf("stdout missing info/warn: %q", out.String())
	}
	if strings.Contains(out.String(), "broken") {
		t.Error("error message went to stdout")
	}
	if !strings.Contains(errOut.String(), "broken") {
		t.Errorf("stderr missing error: %q", errOut.String())
	}
}

func TestLevelRouterWithAttrs(t *testing.T) {
	var out bytes.Buffer
	h := &levelRouter{
		min:    slog.LevelDebug,
		stdout: slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		stderr: slog.NewTextHandler(&out, nil),
	}
	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "socket")}))

	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled")
	}
	logger.Debug("connected")
	if !strings.Contains(out.String(), "component=socket") {
		t.Errorf("attrs lost: %q", out.String())
	}
}
