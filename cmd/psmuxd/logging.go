package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"psmux/internal/sessionlog"
)

// setupLogging installs the process-wide slog handler: text by default,
// JSON when PSMUX_LOG_FORMAT=json (operators piping logs into a collector).
// Every WARN-or-above record is additionally teed through lifecycle, the
// plain log.Logger main() already uses for startup/shutdown lines, so an
// operator watching only stdout still sees package-level warnings without
// needing to point a log aggregator at stderr.
func setupLogging(lifecycle *log.Logger) {
	setupLoggingTo(os.Stderr, lifecycle)
}

// setupLoggingTo is setupLogging with the base handler's destination
// injected, so tests can assert against a buffer instead of the real
// stderr.
func setupLoggingTo(w io.Writer, lifecycle *log.Logger) {
	var base slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if os.Getenv("PSMUX_LOG_FORMAT") == "json" {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	tee := sessionlog.NewTeeHandler(base, slog.LevelWarn, func(_ time.Time, level slog.Level, msg, group string) {
		if group != "" {
			lifecycle.Printf("%s [%s] %s", level, group, msg)
		} else {
			lifecycle.Printf("%s %s", level, msg)
		}
	})
	slog.SetDefault(slog.New(tee))
}
