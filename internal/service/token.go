package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/templui/secureshare/internal/cryptox"
	"github.com/templui/secureshare/internal/model"
	"github.com/templui/secureshare/internal/repository"
)

const tokenRandomLength = 32

type TokenService struct {
	tokens     repository.TokenRepository
	defaultTTL time.Duration
	maxTTL     time.Duration // zero means unbounded
	now        func() time.Time
}

func NewTokenService(tokens repository.TokenRepository, defaultTTL, maxTTL time.Duration) *TokenService {
	return &TokenService{
		tokens:     tokens,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
		now:        time.Now,
	}
}

// Issue creates a new single-use token. A zero ttl selects the configured
// default; a negative one or one above the maximum is ErrInvalidExpiry.
func (s *TokenService) Issue(ctx context.Context, ttl time.Duration) (*model.Token, error) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl <= 0 || (s.maxTTL > 0 && ttl > s.maxTTL) {
		return nil, ErrInvalidExpiry
	}

	for range maxIDAttempts {
		random, err := cryptox.RandomString(tokenRandomLength)
		if err != nil {
			return nil, err
		}

		now := utcNow(s.now)
		token := &model.Token{
			ID:        model.TokenPrefix + random,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}

		err = s.tokens.Create(ctx, token)
		if errors.Is(err, repository.ErrTokenConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to issue token: %w", err)
		}
		return token, nil
	}
	return nil, fmt.Errorf("failed to issue token: %w", repository.ErrTokenConflict)
}

// Validate checks that the token exists and is live without consuming it.
func (s *TokenService) Validate(ctx context.Context, id string) error {
	_, err := s.tokens.Get(ctx, id, utcNow(s.now))
	if errors.Is(err, repository.ErrTokenNotFound) {
		return ErrUnauthorized
	}
	return err
}

// Consume deletes a live token. Exactly one of several concurrent callers
// succeeds; the others get ErrUnauthorized.
func (s *TokenService) Consume(ctx context.Context, id string) error {
	err := s.tokens.Consume(ctx, id, utcNow(s.now))
	if errors.Is(err, repository.ErrTokenNotFound) {
		return ErrUnauthorized
	}
	return err
}

// Revoke deletes a token early. The id may be given with or without prefix.
func (s *TokenService) Revoke(ctx context.Context, id string) error {
	n, err := s.tokens.Delete(ctx, model.NormalizeTokenID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// utcNow truncates to microseconds, the precision both databases keep.
func utcNow(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}
