package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON records to stdout in production,
// console encoding in development. The returned AtomicLevel stays live so the
// level can be changed at runtime (config hot reload).
func NewLogger(environment, level string) (*zap.Logger, zap.AtomicLevel, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, cfg.Level, nil
}

// ParseLevel maps a config level string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Logger wraps a zap logger so every record emitted under an active trace is
// annotated with trace_id and span_id. With no valid span context the fields
// are omitted entirely, never emitted as empty strings. Emission itself never
// fails the caller; a missing trace context simply degrades to an
// uncorrelated record.
type Logger struct {
	base *zap.Logger
}

// NewCorrelatedLogger wraps base with trace correlation.
func NewCorrelatedLogger(base *zap.Logger) *Logger {
	return &Logger{base: base}
}

// Named returns a logger with the given name segment appended.
func (l *Logger) Named(name string) *Logger {
	return &Logger{base: l.base.Named(name)}
}

// Base returns the underlying zap logger for call sites that have no request
// context.
func (l *Logger) Base() *zap.Logger {
	return l.base
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Debug(msg, l.correlate(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Info(msg, l.correlate(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Warn(msg, l.correlate(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Error(msg, l.correlate(ctx, fields)...)
}

func (l *Logger) correlate(ctx context.Context, fields []zap.Field) []zap.Field {
	tc, ok := CurrentTraceContext(ctx)
	if !ok {
		return fields
	}
	return append(fields,
		zap.String("trace_id", tc.TraceID),
		zap.String("span_id", tc.SpanID),
	)
}
