package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger wraps slog.Logger with the fields burstsim attaches to every line.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing text or JSON lines to w.
func NewLogger(w io.Writer, format string, level slog.Level) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &Logger{Logger: slog.New(handler)}, nil
}

// WithRun adds the run ID to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run", id)}
}

// WithScenario adds the scenario name to the logger.
func (l *Logger) WithScenario(name string) *Logger {
	return &Logger{Logger: l.Logger.With("scenario", name)}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}

	return level, nil
}
