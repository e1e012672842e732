package ctxkeys

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	URLPathKey   contextKey = "url_path"
	RequestIDKey contextKey = "request_id"
	GrantKey     contextKey = "grant"
)

// URLPath returns the request path with secrets redacted, safe for logs.
func URLPath(ctx context.Context) string {
	path, _ := ctx.Value(URLPathKey).(string)
	return path
}

func WithURLPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, URLPathKey, path)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Grant returns which credential authorized the request, "" if none.
func Grant(ctx context.Context) string {
	grant, _ := ctx.Value(GrantKey).(string)
	return grant
}

func WithGrant(ctx context.Context, grant string) context.Context {
	return context.WithValue(ctx, GrantKey, grant)
}
