package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID identifies an import session.
	FieldSessionID = "session_id"
	// FieldSourceID carries the disc fingerprint of the source being imported.
	FieldSourceID = "source_id"
	// FieldMediumID identifies a medium in the library.
	FieldMediumID = "medium_id"
	// FieldTrack is the 1-based track number on a disc.
	FieldTrack = "track"
	// FieldState is the pipeline or session state.
	FieldState = "state"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	mediumIDKey
)

// WithSessionID stores an import session identifier on the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithMediumID stores a medium identifier on the context.
func WithMediumID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, mediumIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ctx.Value(sessionIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if id, ok := ctx.Value(mediumIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldMediumID, id))
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
