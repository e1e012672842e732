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
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectConflict = errors.New("object id already exists")
)

type ObjectRepository interface {
	Create(ctx context.Context, obj *model.Object) error
	Get(ctx context.Context, id, filename string, now time.Time) (*model.Object, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, []string, error)
}

type objectRepository struct {
	db *sqlx.DB
}

func NewObjectRepository(db *sqlx.DB) ObjectRepository {
	return &objectRepository{db: db}
}

func (r *objectRepository) Create(ctx context.Context, obj *model.Object) error {
	query := `
		INSERT INTO objects (id, filename, checksum, mimetype, oneshot, data, blob_key, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		obj.ID,
		obj.Filename,
		obj.Checksum,
		obj.MimeType,
		obj.OneShot,
		obj.Data,
		obj.BlobKey,
		obj.CreatedAt.UTC(),
		obj.ExpiresAt.UTC(),
	)
	if isUniqueViolation(err) {
		return ErrObjectConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert object: %w", err)
	}
	return nil
}

// Get returns the object only if both id and filename match and it has not
// expired at now. A filename mismatch is indistinguishable from a missing id.
func (r *objectRepository) Get(ctx context.Context, id, filename string, now time.Time) (*model.Object, error) {
	obj := &model.Object{}
	query := `
		SELECT id, filename, checksum, mimetype, oneshot, data, blob_key, created_at, expires_at
		FROM objects
		WHERE id = $1 AND filename = $2 AND expires_at > $3
	`
	err := r.db.GetContext(ctx, obj, query, id, filename, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// Delete removes the object and returns the number of rows removed.
// Deleting a missing id is not an error; concurrent callers can use the
// count to tell which of them actually removed the row.
func (r *objectRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM objects WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete object: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes every object with expires_at <= now in one statement.
// It returns the count together with the external blob keys of removed rows
// so the caller can clean up the blob store.
func (r *objectRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, []string, error) {
	var keys []string
	query := `DELETE FROM objects WHERE expires_at <= $1 RETURNING blob_key`
	err := r.db.SelectContext(ctx, &keys, query, now.UTC())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to delete expired objects: %w", err)
	}

	blobKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			blobKeys = append(blobKeys, k)
		}
	}
	return int64(len(keys)), blobKeys, nil
}
