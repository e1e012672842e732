package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/secureshare/internal/model"
	"github.com/templui/secureshare/internal/repository"
)

func TestGate_StaticKey(t *testing.T) {
	f := newFixture(t, nil)
	gate := NewGate("upload-key", f.tokenSvc)
	ctx := context.Background()

	grant, err := gate.Authorize(ctx, "upload-key", false)
	require.NoError(t, err)
	assert.Equal(t, GrantStatic, grant)

	for _, cred := range []string{"", "upload-ke", "upload-key ", "UPLOAD-KEY"} {
		grant, err := gate.Authorize(ctx, cred, true)
		assert.ErrorIs(t, err, ErrUnauthorized, cred)
		assert.Equal(t, GrantNone, grant)
	}
}

func TestGate_EmptyStaticKeyDeniesAll(t *testing.T) {
	gate := NewGate("", nil)
	_, err := gate.Authorize(context.Background(), "anything", true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGate_TokenSingleUse(t *testing.T) {
	f := newFixture(t, nil)
	gate := NewGate("upload-key", f.tokenSvc)
	ctx := context.Background()

	tok, err := f.tokenSvc.Issue(ctx, 0)
	require.NoError(t, err)

	grant, err := gate.Authorize(ctx, tok.ID, true)
	require.NoError(t, err)
	assert.Equal(t, GrantToken, grant)

	_, err = gate.Authorize(ctx, tok.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGate_TokenNotAllowedOnRoute(t *testing.T) {
	f := newFixture(t, nil)
	gate := NewGate("upload-key", f.tokenSvc)
	ctx := context.Background()

	tok, err := f.tokenSvc.Issue(ctx, 0)
	require.NoError(t, err)

	_, err = gate.Authorize(ctx, tok.ID, false)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// rejected tokens are not spent
	require.NoError(t, f.tokenSvc.Validate(ctx, tok.ID))
}

func TestGate_ExpiredAndUnknownTokens(t *testing.T) {
	f := newFixture(t, nil)
	gate := NewGate("upload-key", f.tokenSvc)
	ctx := context.Background()

	tok, err := f.tokenSvc.Issue(ctx, time.Minute)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	_, err = gate.Authorize(ctx, tok.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = gate.Authorize(ctx, model.TokenPrefix+"doesnotexist", true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGate_TokenConcurrent(t *testing.T) {
	f := newFixture(t, nil)
	gate := NewGate("upload-key", f.tokenSvc)
	ctx := context.Background()

	tok, err := f.tokenSvc.Issue(ctx, 0)
	require.NoError(t, err)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := gate.Authorize(ctx, tok.ID, true); err == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, granted.Load())
}

type brokenTokenRepo struct {
	repository.TokenRepository
}

func (brokenTokenRepo) Get(context.Context, string, time.Time) (*model.Token, error) {
	return nil, errors.New("db down")
}

func TestGate_StoreErrorIsNotUnauthorized(t *testing.T) {
	gate := NewGate("upload-key", NewTokenService(brokenTokenRepo{}, time.Hour, 0))

	_, err := gate.Authorize(context.Background(), "token:abc", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
