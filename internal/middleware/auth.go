package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/secureshare/internal/ctxkeys"
	"github.com/templui/secureshare/internal/service"
)

// AuthHeader carries either the static upload key or a "token:" credential.
const AuthHeader = "x-auth-key"

// RequireAuth guards a handler with the access gate.
//
// Before the handler runs the credential is authorized, and a token
// credential is consumed. After it returns the grant is logged together
// with the handler's status. Set allowTokens to accept one-time tokens on
// the route; otherwise only the static key passes.
func RequireAuth(gate *service.Gate, allowTokens bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			grant, err := gate.Authorize(r.Context(), r.Header.Get(AuthHeader), allowTokens)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					slog.Warn("access denied",
						"path", loggedPath(r),
						"ip", remoteIP(r),
						"request_id", ctxkeys.RequestID(r.Context()),
					)
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				slog.Error("authorization failed", "error", err, "request_id", ctxkeys.RequestID(r.Context()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			rw := wrapResponseWriter(w)
			next(rw, r.WithContext(ctxkeys.WithGrant(r.Context(), string(grant))))

			slog.Info("access granted",
				"grant", grant,
				"path", loggedPath(r),
				"status", rw.statusCode,
				"request_id", ctxkeys.RequestID(r.Context()),
			)
		}
	}
}
