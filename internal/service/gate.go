package service

import (
	"context"
	"log/slog"

	"github.com/awnumar/memguard"
	"github.com/templui/secureshare/internal/model"
)

// Grant says which credential branch authorized a request.
type Grant string

const (
	GrantNone   Grant = ""
	GrantStatic Grant = "static"
	GrantToken  Grant = "token"
)

// Gate authorizes write operations against the static upload key or a
// one-time token. The gate's copy of the static key lives in a memguard
// enclave and is only decrypted for the duration of a comparison. Callers
// should drop their own plaintext copy once NewGate returns.
type Gate struct {
	key    *memguard.Enclave
	tokens *TokenService
}

func NewGate(staticKey string, tokens *TokenService) *Gate {
	var key *memguard.Enclave
	if staticKey != "" {
		// NewEnclave wipes its argument; the conversion gives it a private copy.
		key = memguard.NewEnclave([]byte(staticKey))
	}
	return &Gate{key: key, tokens: tokens}
}

// Authorize checks a credential. Token credentials are accepted only when
// allowTokens is set, and a valid token is consumed before Authorize returns:
// the token is spent once per successful authorization, whatever the guarded
// operation does afterwards. Rejections are ErrUnauthorized; any other
// error comes from the token store.
func (g *Gate) Authorize(ctx context.Context, credential string, allowTokens bool) (Grant, error) {
	if credential == "" {
		return GrantNone, ErrUnauthorized
	}

	if model.IsTokenCredential(credential) {
		if !allowTokens || g.tokens == nil {
			return GrantNone, ErrUnauthorized
		}
		if err := g.tokens.Validate(ctx, credential); err != nil {
			return GrantNone, err
		}
		if err := g.tokens.Consume(ctx, credential); err != nil {
			return GrantNone, err
		}
		return GrantToken, nil
	}

	if g.matchesStatic(credential) {
		return GrantStatic, nil
	}
	return GrantNone, ErrUnauthorized
}

func (g *Gate) matchesStatic(credential string) bool {
	if g.key == nil {
		return false
	}
	buf, err := g.key.Open()
	if err != nil {
		slog.Error("failed to open upload key enclave", "error", err)
		return false
	}
	defer buf.Destroy()
	return buf.EqualTo([]byte(credential))
}
