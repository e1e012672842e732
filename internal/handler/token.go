package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/secureshare/internal/service"
)

type TokenHandler struct {
	tokens  *service.TokenService
	baseURL string
}

func NewTokenHandler(tokens *service.TokenService, baseURL string) *TokenHandler {
	return &TokenHandler{
		tokens:  tokens,
		baseURL: baseURL,
	}
}

type tokenResponse struct {
	Token   string    `json:"token"`
	URL     string    `json:"url"`
	Expires time.Time `json:"expires"`
}

// Issue creates a one-time upload token. An optional "expires" form or
// query value overrides the default lifetime in seconds.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	ttl, ok := parseExpires(r.FormValue(formExpires))
	if !ok {
		http.Error(w, "Invalid expires", http.StatusBadRequest)
		return
	}

	token, err := h.tokens.Issue(r.Context(), ttl)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("upload token issued", "expires_at", token.ExpiresAt)

	noCache(w)
	writeJSON(w, http.StatusCreated, tokenResponse{
		Token:   token.ID,
		URL:     h.baseURL + "/u",
		Expires: token.ExpiresAt,
	})
}

func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	err := h.tokens.Revoke(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("upload token revoked")
	w.WriteHeader(http.StatusNoContent)
}
