// Package obslog provides the structured logger shared by the deal
// engine, Monte-Carlo runner, and cmd/clo-run. It mirrors the
// file+stdout slog setup the rest of this codebase's lineage uses:
// JSON to a dated log file and to stdout.
package obslog

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Logger wraps slog.Logger so call sites can use the standard
// Info/Warn/Error API without importing log/slog themselves.
type Logger struct {
	*slog.Logger
}

// New creates a structured logger writing JSON to both
// logDir/<date>.log and stdout; with an empty logDir it writes
// human-readable text to stdout only. Business-rule clamps (§7 of the
// spec this engine implements) are expected to log at Warn; period
// and waterfall-step transitions at Info.
func New(logDir string) (*Logger, error) {
	if logDir == "" {
		return &Logger{slog.New(slog.NewTextHandler(os.Stdout, nil))}, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	logFile := filepath.Join(logDir, time.Now().Format("2006-01-02")+".log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	multiWriter := io.MultiWriter(file, os.Stdout)
	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	})

	return &Logger{slog.New(handler)}, nil
}

// Noop returns a logger that discards all output, for use in
// Monte-Carlo worker goroutines where per-path logging would be too
// noisy and isn't required by the determinism contract.
func Noop() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithRun returns a child logger tagging every record with a run id,
// used to correlate a Monte-Carlo path's log lines across components.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{l.Logger.With(slog.String("run_id", runID))}
}

// Clamp logs a business-rule clamp (§7: sell more than held, purchase
// with insufficient cash, ...) at Warn and returns it as an error so
// callers can append it to a run's warning list.
func (l *Logger) Clamp(msg string, args ...any) error {
	l.Warn(msg, args...)
	return errors.New(msg)
}
