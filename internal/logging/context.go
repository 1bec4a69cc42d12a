package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for the sync run identifier.
	FieldRunID = "run_id"
	// FieldTitleKey is the standardized structured logging key for the library folder name.
	FieldTitleKey = "title_key"
	// FieldSource is the standardized structured logging key for the catalog source (mal, anilist).
	FieldSource = "source"
)

type contextKey int

const (
	runIDKey contextKey = iota
	titleKeyKey
	sourceKey
)

// WithRunID stores the sync run identifier on the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, strings.TrimSpace(id))
}

// WithTitleKey stores the title being processed on the context.
func WithTitleKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, titleKeyKey, key)
}

// WithSource stores the catalog source on the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := stringFromContext(ctx, runIDKey); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if key, ok := stringFromContext(ctx, titleKeyKey); ok {
		fields = append(fields, slog.String(FieldTitleKey, key))
	}
	if source, ok := stringFromContext(ctx, sourceKey); ok {
		fields = append(fields, slog.String(FieldSource, source))
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
	return logger.With(attrsToArgs(fields)...)
}
