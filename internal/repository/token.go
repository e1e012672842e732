package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/secureshare/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenConflict = errors.New("token id already exists")
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	Get(ctx context.Context, id string, now time.Time) (*model.Token, error)
	Consume(ctx context.Context, id string, now time.Time) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	query := `
		INSERT INTO tokens (id, created_at, expires_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.CreatedAt.UTC(),
		token.ExpiresAt.UTC(),
	)
	if isUniqueViolation(err) {
		return ErrTokenConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

// Get is a read-only validity check: the token exists and has not expired.
func (r *tokenRepository) Get(ctx context.Context, id string, now time.Time) (*model.Token, error) {
	var t model.Token
	query := `SELECT id, created_at, expires_at FROM tokens WHERE id = $1 AND expires_at > $2`
	err := r.db.GetContext(ctx, &t, query, id, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

// Consume atomically deletes a live token.
// This prevents race conditions where two requests could use the same token
// Only the first request will succeed, the second will get ErrTokenNotFound
func (r *tokenRepository) Consume(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = $1 AND expires_at > $2`, id, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// Delete revokes a token regardless of its expiry.
func (r *tokenRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete token: %w", err)
	}
	return result.RowsAffected()
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
