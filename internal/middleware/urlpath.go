package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/secureshare/internal/ctxkeys"
)

const redacted = "[redacted]"

// WithURLPath adds the current URL's path to the context with the
// decryption key segment of download paths replaced, so logs never see it.
func WithURLPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxWithPath := ctxkeys.WithURLPath(r.Context(), RedactPath(r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctxWithPath))
	})
}

// RedactPath hides the key in /d/{id}/{key}/{filename} and the token in
// /api/v1/token/{token}.
func RedactPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/d/"):
		parts := strings.SplitN(path, "/", 5) // "", "d", id, key, filename
		if len(parts) >= 4 && parts[3] != "" {
			parts[3] = redacted
		}
		return strings.Join(parts, "/")
	case strings.HasPrefix(path, "/api/v1/token/") && len(path) > len("/api/v1/token/"):
		return "/api/v1/token/" + redacted
	}
	return path
}

// loggedPath prefers the redacted path stored by WithURLPath.
func loggedPath(r *http.Request) string {
	if p := ctxkeys.URLPath(r.Context()); p != "" {
		return p
	}
	return RedactPath(r.URL.Path)
}
