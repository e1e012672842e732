package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/secureshare/internal/ctxkeys"
	"github.com/templui/secureshare/internal/service"
)

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// noCache marks a response as never cacheable. Download and upload
// responses carry keys or decrypted content.
func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, post-check=0, pre-check=0")
	w.Header().Set("Pragma", "no-cache")
}

// writeError maps service errors to status codes without echoing details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrChecksumMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidExpiry):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this response
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", ctxkeys.URLPath(r.Context()),
			"request_id", ctxkeys.RequestID(r.Context()),
		)
	}

	http.Error(w, http.StatusText(status), status)
}
