package common

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID tags ctx with a trace id. A blank id leaves ctx untouched.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the trace id carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// EnsureRequestID tags ctx with requestID, generating a UUID when it is blank.
func EnsureRequestID(ctx context.Context, requestID string) (context.Context, string) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey{}, requestID), requestID
}

// LoggerFor adds the request_id of ctx to logger.
func LoggerFor(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return logger.With("request_id", id)
	}
	return logger
}
