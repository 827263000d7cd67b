package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

// maxIDLen bounds correlation values, which may come from clients.
const maxIDLen = 128

// safeID reports whether s is short and made only of letters, digits,
// '-', '_' and '.'.
func safeID(s string) bool {
	if s == "" || len(s) > maxIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// WithRequestID records the request id. Malformed ids are dropped.
func WithRequestID(ctx context.Context, id string) context.Context {
	if !safeID(id) {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithActor records the admin username performing the request.
func WithActor(ctx context.Context, username string) context.Context {
	if !safeID(username) {
		return ctx
	}
	return context.WithValue(ctx, actorKey, username)
}

// ActorFromContext returns the acting admin, if any.
func ActorFromContext(ctx context.Context) string {
	a, _ := ctx.Value(actorKey).(string)
	return a
}

// ContextFields returns the correlation fields carried by ctx.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if a := ActorFromContext(ctx); a != "" {
		fields = append(fields, zap.String("actor", a))
	}
	return fields
}
