package logging

import (
	"context"
	"log/slog"

	"conveyor/internal/services"
)

// ContextFields collects the identity attrs carried by ctx so handlers and
// helpers can stamp them onto records.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]Attr, 0, 4)
	if runID, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, String(FieldRunID, runID))
	}
	if taskID, ok := services.TaskIDFromContext(ctx); ok {
		fields = append(fields, String(FieldTaskID, taskID))
	}
	if attempt, ok := services.AttemptFromContext(ctx); ok {
		fields = append(fields, Int(FieldTryNumber, attempt))
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, requestID))
	}
	return fields
}

// WithContext returns a logger pre-tagged with whatever identity the context
// carries. The original logger is returned unchanged when the context has
// nothing to add.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
