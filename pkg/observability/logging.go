// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects the zap backend for the process logger.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error. Unknown values fall
	// back to info.
	Level string
	// Development switches to zap's development preset.
	Development bool
	// Encoding overrides the preset encoder (json or console).
	Encoding string
}

// NewLogger builds a logr.Logger on top of zap. Handlers obtain a
// request-scoped copy through LoggerFromContext; libraries receive
// theirs via functional options.
func NewLogger(cfg LoggerConfig) (logr.Logger, error) {
	base := zap.NewProductionConfig()
	if cfg.Development {
		base = zap.NewDevelopmentConfig()
	}
	if cfg.Encoding != "" {
		base.Encoding = cfg.Encoding
	}

	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	base.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := base.Build(zap.AddCallerSkip(1))
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// LoggerWithTraceContext stamps the active span's trace and span IDs
// onto the logger so log lines can be joined with traces. Without a
// recording span the logger passes through unchanged.
func LoggerWithTraceContext(ctx context.Context, logger logr.Logger) logr.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return logger
	}
	return logger.WithValues(
		"trace_id", sc.TraceID().String(),
		"span_id", sc.SpanID().String(),
	)
}

type loggerKey struct{}

// ContextWithLogger attaches a logger to the context.
func ContextWithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext retrieves the logger attached by ContextWithLogger,
// or a discard logger when none is present.
func LoggerFromContext(ctx context.Context) logr.Logger {
	return LoggerFromContextOrDefault(ctx, logr.Discard())
}

// LoggerFromContextOrDefault retrieves the attached logger, falling
// back to the given default.
func LoggerFromContextOrDefault(ctx context.Context, def logr.Logger) logr.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(logr.Logger); ok {
		return logger
	}
	return def
}
