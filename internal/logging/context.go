package logging

import "context"

type contextKey string

const (
	mountIDKey    contextKey = "mount_id"
	sourceKey     contextKey = "source"
	entryKey      contextKey = "entry"
	requestIDKey  contextKey = "request_id"
)

// WithMountID annotates context with the active mount identifier.
func WithMountID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, mountIDKey, id)
}

// MountIDFromContext extracts the mount identifier if present.
func MountIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(mountIDKey).(string)
	return v, ok && v != ""
}

// WithSource annotates context with the source path being served.
func WithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the source path if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sourceKey).(string)
	return v, ok && v != ""
}

// WithEntry annotates context with the virtual entry name being read.
func WithEntry(ctx context.Context, entry string) context.Context {
	if entry == "" {
		return ctx
	}
	return context.WithValue(ctx, entryKey, entry)
}

// EntryFromContext returns the entry name if present.
func EntryFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(entryKey).(string)
	return v, ok && v != ""
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok && v != ""
}
