package logging

import (
	"context"
	"log/slog"

	"soundconverter/internal/services"
)

const (
	// FieldComponent is the structured logging key rendered as the line scope.
	FieldComponent = "component"
	// FieldRequestID correlates every line of one batch.
	FieldRequestID = "request_id"
	// FieldOperation names the batch operation (convert, trim, ...).
	FieldOperation = "operation"
	// FieldItemIndex is the 1-based position of a work item within its batch.
	FieldItemIndex = "item"
	// FieldEventType tags lines that mark a lifecycle transition.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if idx, ok := services.ItemIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldItemIndex, idx))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
