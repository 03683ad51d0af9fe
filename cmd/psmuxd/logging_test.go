package main

import (
	"bytes"
	"log"
	"log/slog"
	"strings"
	"testing"

	"psmux/internal/testutil"
)

func TestSetupLoggingTeesWarnToLifecycle(t *testing.T) {
	originalLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(originalLogger) })

	var base, lifecycleOut bytes.Buffer
	logger := log.New(&lifecycleOut, "", 0)
	setupLoggingTo(&base, logger)

	slog.Debug("pane resize skipped")
	slog.Warn("listener bind retried", "socket", "default")

	out := lifecycleOut.String()
	if !strings.Contains(out, "listener bind retried") {
		t.Fatalf("expected warn record teed to lifecycle logger, got %q", out)
	}
	if strings.Contains(out, "pane resize skipped") {
		t.Fatalf("debug record should not reach lifecycle logger, got %q", out)
	}
	if !strings.Contains(base.String(), "listener bind retried") {
		t.Fatalf("expected base handler to also carry the record, got %q", base.String())
	}
}

func TestSetupLoggingJSONFormat(t *testing.T) {
	originalLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(originalLogger) })
	t.Setenv("PSMUX_LOG_FORMAT", "json")

	var base, lifecycleOut bytes.Buffer
	setupLoggingTo(&base, log.New(&lifecycleOut, "", 0))

	want := testutil.Ptr("daemon ready")
	slog.Info(*want)

	if !strings.Contains(base.String(), `"msg":"daemon ready"`) {
		t.Fatalf("expected JSON-formatted record, got %q", base.String())
	}
}

func TestCaptureLogBufferHelper(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelInfo)
	slog.Info("hello from capture helper")
	if !strings.Contains(buf.String(), "hello from capture helper") {
		t.Fatalf("expected captured buffer to contain the log line, got %q", buf.String())
	}
}
