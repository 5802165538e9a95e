package quiver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the slog.Logger used by Quantizer and the codebook registry.
// Its helpers fix the attribute names so construction logs can be grepped
// across services: n, s, mode, support, m, cost, duration.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler logs text at Info to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NewTextLogger(slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON lines at level and above to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs logfmt-style text at level and above to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything. It is the default.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithMode tags every record with the solver mode.
func (l *Logger) WithMode(mode Mode) *Logger { return l.with("mode", mode.String()) }

// WithBins tags every record with the requested bin count.
func (l *Logger) WithBins(s int) *Logger { return l.with("s", s) }

// LogConstruct records the outcome of one Construct call. Successes go to
// Debug, budget refusals to Warn, anything else to Error.
func (l *Logger) LogConstruct(ctx context.Context, n, s int, res *Result, err error) {
	attrs := []any{"n", n, "s", s}

	if err == nil {
		l.DebugContext(ctx, "construct completed", append(attrs,
			"support", res.Support,
			"m", res.SketchSize,
			"cost", res.Cost,
			"duration", res.Duration,
		)...)
		return
	}

	attrs = append(attrs, "error", err)
	if errors.Is(err, ErrResourceExhausted) {
		l.WarnContext(ctx, "construct refused", attrs...)
		return
	}
	l.ErrorContext(ctx, "construct failed", attrs...)
}

// LogBatch records the outcome of ConstructBatch.
func (l *Logger) LogBatch(ctx context.Context, count int, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch construct failed", "count", count, "error", err)
		return
	}
	l.InfoContext(ctx, "batch construct completed", "count", count, "duration", duration)
}
