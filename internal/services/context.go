package services

import "context"

type contextKey string

const (
	videoIDKey   contextKey = "video_id"
	libraryIDKey contextKey = "library_id"
	phaseKey     contextKey = "phase"
	requestIDKey contextKey = "request_id"
)

// WithVideoID annotates context with the video identifier under analysis.
func WithVideoID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, videoIDKey, id)
}

// VideoIDFromContext extracts the video identifier if present.
func VideoIDFromContext(ctx context.Context) (int64, bool) {
	switch val := ctx.Value(videoIDKey).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithLibraryID annotates context with the library identifier for batch runs.
func WithLibraryID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, libraryIDKey, id)
}

// LibraryIDFromContext extracts the library identifier if present.
func LibraryIDFromContext(ctx context.Context) (int64, bool) {
	if val, ok := ctx.Value(libraryIDKey).(int64); ok {
		return val, true
	}
	return 0, false
}

// WithPhase annotates context with the analysis phase name (visual/audio).
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(phaseKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a run correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
