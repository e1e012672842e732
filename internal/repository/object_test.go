package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/secureshare/internal/db/dbtest"
	"github.com/templui/secureshare/internal/model"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newObject(id string, expiresIn time.Duration) *model.Object {
	return &model.Object{
		ID:        id,
		Filename:  "notes.txt",
		Checksum:  "abc",
		MimeType:  "text/plain",
		Data:      []byte{1, 2, 3},
		CreatedAt: t0,
		ExpiresAt: t0.Add(expiresIn),
	}
}

func TestObjectRepository_CreateGet(t *testing.T) {
	repo := NewObjectRepository(dbtest.New(t))
	ctx := context.Background()

	obj := newObject("o1", time.Hour)
	obj.OneShot = true
	require.NoError(t, repo.Create(ctx, obj))

	got, err := repo.Get(ctx, "o1", "notes.txt", t0)
	require.NoError(t, err)
	if diff := cmp.Diff(obj, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("object mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectRepository_GetFilters(t *testing.T) {
	repo := NewObjectRepository(dbtest.New(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newObject("o1", time.Hour)))

	_, err := repo.Get(ctx, "missing", "notes.txt", t0)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = repo.Get(ctx, "o1", "other.txt", t0)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// expires_at == now is already expired
	_, err = repo.Get(ctx, "o1", "notes.txt", t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = repo.Get(ctx, "o1", "notes.txt", t0.Add(time.Hour-time.Millisecond))
	assert.NoError(t, err)
}

func TestObjectRepository_CreateConflict(t *testing.T) {
	repo := NewObjectRepository(dbtest.New(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newObject("dup", time.Hour)))
	err := repo.Create(ctx, newObject("dup", time.Hour))
	assert.ErrorIs(t, err, ErrObjectConflict)
}

func TestObjectRepository_DeleteIdempotent(t *testing.T) {
	repo := NewObjectRepository(dbtest.New(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newObject("o1", time.Hour)))

	n, err := repo.Delete(ctx, "o1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.Delete(ctx, "o1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestObjectRepository_DeleteConcurrent(t *testing.T) {
	repo := NewObjectRepository(dbtest.New(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newObject("o1", time.Hour)))

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.Delete(ctx, "o1")
			assert.NoError(t, err)
			total.Add(n)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, total.Load())
}

func TestObjectRepository_DeleteExpired(t *testing.T) {
	repo := NewObjectRepository(dbtest.New(t))
	ctx := context.Background()

	expired := newObject("old", time.Minute)
	expired.Data = nil
	expired.BlobKey = "objects/old"
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, newObject("edge", 2*time.Minute)))
	require.NoError(t, repo.Create(ctx, newObject("live", time.Hour)))

	n, keys, err := repo.DeleteExpired(ctx, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, []string{"objects/old"}, keys)

	_, err = repo.Get(ctx, "live", "notes.txt", t0)
	assert.NoError(t, err)

	n, keys, err = repo.DeleteExpired(ctx, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, keys)
}

func newMockRepo(t *testing.T) (ObjectRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return NewObjectRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestObjectRepository_DBErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	dbErr := errors.New("db down")

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+objects\b`).WillReturnError(dbErr)
	err := repo.Create(ctx, newObject("o1", time.Hour))
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrObjectConflict)

	mock.ExpectQuery(`(?s)^\s*SELECT\b.*FROM objects`).WillReturnError(dbErr)
	_, err = repo.Get(ctx, "o1", "notes.txt", t0)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrObjectNotFound)

	mock.ExpectExec(`^DELETE FROM objects WHERE id = \$1$`).WithArgs("o1").WillReturnError(dbErr)
	_, err = repo.Delete(ctx, "o1")
	assert.ErrorIs(t, err, dbErr)

	mock.ExpectQuery(`^DELETE FROM objects WHERE expires_at <= \$1 RETURNING blob_key$`).WillReturnError(dbErr)
	_, _, err = repo.DeleteExpired(ctx, t0)
	assert.ErrorIs(t, err, dbErr)

	require.NoError(t, mock.ExpectationsWereMet())
}
