// Package logger is the diagnostics sink used by the converters. Every entry
// carries the reporting component, the operation and the correlation ID of
// the conversion pass.
package logger

import (
	"context"
	"log/slog"

	"github.com/starford/cdmbridge/internal/cdm"
)

// Attribute keys set on every converter record.
const (
	KeyComponent     = "component"
	KeyOperation     = "operation"
	KeyCorrelationID = "correlation_id"
)

// Warning reports data that is missing or unusual; conversion continues.
func Warning(component string, ctx *cdm.CorpusContext, message, operation string) {
	emit(slog.LevelWarn, component, ctx, message, operation)
}

// Error reports a structural failure that aborted one object's conversion.
func Error(component string, ctx *cdm.CorpusContext, message, operation string) {
	emit(slog.LevelError, component, ctx, message, operation)
}

// Debug reports routine progress.
func Debug(component string, ctx *cdm.CorpusContext, message, operation string) {
	emit(slog.LevelDebug, component, ctx, message, operation)
}

func emit(level slog.Level, component string, ctx *cdm.CorpusContext, message, operation string) {
	l := slog.Default()
	attrs := []slog.Attr{
		slog.String(KeyComponent, component),
		slog.String(KeyOperation, operation),
	}
	if ctx != nil {
		if ctx.Logger != nil {
			l = ctx.Logger
		}
		if ctx.CorrelationID != "" {
			attrs = append(attrs, slog.String(KeyCorrelationID, ctx.CorrelationID))
		}
	}
	l.LogAttrs(context.Background(), level, message, attrs...)
}
