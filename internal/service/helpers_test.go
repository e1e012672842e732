package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/secureshare/internal/db/dbtest"
	"github.com/templui/secureshare/internal/repository"
	"github.com/templui/secureshare/internal/storage"
)

// fakeClock is a settable time source shared by services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memBlobs is an in-memory storage.Storage.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return data, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memBlobs) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

type fixture struct {
	db       *sqlx.DB
	clock    *fakeClock
	objects  repository.ObjectRepository
	tokens   repository.TokenRepository
	transfer *TransferService
	tokenSvc *TokenService
}

func newFixture(t *testing.T, blobs storage.Storage) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	clock := newFakeClock()

	objects := repository.NewObjectRepository(conn)
	tokens := repository.NewTokenRepository(conn)

	transfer := NewTransferService(objects, blobs,
		NewAgentFilter([]string{"Slackbot"}, []string{"preview"}),
		TransferConfig{
			BaseURL:        "https://share.example.com",
			DefaultExpires: time.Hour,
			MaxExpires:     24 * time.Hour,
		})
	transfer.now = clock.Now

	tokenSvc := NewTokenService(tokens, time.Hour, 24*time.Hour)
	tokenSvc.now = clock.Now

	return &fixture{
		db:       conn,
		clock:    clock,
		objects:  objects,
		tokens:   tokens,
		transfer: transfer,
		tokenSvc: tokenSvc,
	}
}

func (f *fixture) countObjects(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.Get(&n, `SELECT COUNT(*) FROM objects`); err != nil {
		t.Fatalf("count objects: %v", err)
	}
	return n
}
