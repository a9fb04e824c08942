// Package logger sets up structured logging with log/slog: a JSON
// handler on stdout carrying the service name, plus request ID
// propagation through context.Context for trade handling.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Init creates a structured logger for the given service and installs it
// as the slog default.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	l := slog.New(handler).With(slog.String("service", service))
	slog.SetDefault(l)
	return l
}

// WithRequestID stores a request ID in the context for downstream logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from context. Returns "" if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// NewRequestID builds a request ID from a token and timestamp.
// Format: "{token}-{unixNano}" — lightweight, no UUID dependency.
func NewRequestID(token string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", token, ts.UnixNano())
}
