package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/templui/secureshare/internal/cryptox"
	"github.com/templui/secureshare/internal/model"
	"github.com/templui/secureshare/internal/repository"
	"github.com/templui/secureshare/internal/storage"
	"github.com/templui/secureshare/internal/validation"
)

const (
	maxIDAttempts      = 3
	blobKeyPrefix      = "objects/"
	blobCleanupTimeout = 10 * time.Second

	mimeOctetStream = "application/octet-stream"
	mimeText        = "text/plain; charset=utf-8"
)

type TransferConfig struct {
	BaseURL        string // external URL, no trailing slash
	DefaultExpires time.Duration
	MaxExpires     time.Duration
}

// TransferService encrypts uploads, stores them and serves them back to
// holders of the download URL. Keys only ever exist in those URLs.
type TransferService struct {
	objects repository.ObjectRepository
	blobs   storage.Storage // nil keeps ciphertext in the objects table
	agents  *AgentFilter
	cfg     TransferConfig
	now     func() time.Time
}

func NewTransferService(objects repository.ObjectRepository, blobs storage.Storage, agents *AgentFilter, cfg TransferConfig) *TransferService {
	return &TransferService{
		objects: objects,
		blobs:   blobs,
		agents:  agents,
		cfg:     cfg,
		now:     time.Now,
	}
}

type UploadInput struct {
	Content  []byte
	Filename string
	Checksum string        // optional hex SHA-256 declared by the client
	TTL      time.Duration // zero selects the default
	OneShot  bool
}

type UploadResult struct {
	ID        string
	Key       string
	Filename  string
	URL       string
	ExpiresAt time.Time
}

func (s *TransferService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	ttl := in.TTL
	if ttl == 0 {
		ttl = s.cfg.DefaultExpires
	}
	if ttl <= 0 || (s.cfg.MaxExpires > 0 && ttl > s.cfg.MaxExpires) {
		return nil, ErrInvalidExpiry
	}

	filename := validation.SanitizeFilename(in.Filename)

	checksum := cryptox.Checksum(in.Content)
	if declared := strings.TrimSpace(in.Checksum); declared != "" && !strings.EqualFold(declared, checksum) {
		return nil, ErrChecksumMismatch
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := cryptox.GenerateKey()
	if err != nil {
		return nil, err
	}
	ciphertext, err := cryptox.Encrypt(key, in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	now := utcNow(s.now)
	obj := &model.Object{
		Filename:  filename,
		Checksum:  checksum,
		MimeType:  detectMimeType(filename, in.Content),
		OneShot:   in.OneShot,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if s.blobs != nil {
		obj.BlobKey = blobKeyPrefix + uuid.NewString()
		err = s.blobs.Put(ctx, obj.BlobKey, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to store ciphertext: %w", err)
		}
	} else {
		obj.Data = ciphertext
	}

	err = s.insert(ctx, obj)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded blob
		if obj.BlobKey != "" {
			s.deleteBlob(ctx, obj.BlobKey)
		}
		return nil, err
	}

	return &UploadResult{
		ID:        obj.ID,
		Key:       key,
		Filename:  filename,
		URL:       s.ObjectURL(obj.ID, key, filename),
		ExpiresAt: obj.ExpiresAt,
	}, nil
}

// insert assigns a fresh id and retries on the (unlikely) id collision.
func (s *TransferService) insert(ctx context.Context, obj *model.Object) error {
	for range maxIDAttempts {
		id, err := cryptox.GenerateID()
		if err != nil {
			return err
		}
		obj.ID = id

		err = s.objects.Create(ctx, obj)
		if errors.Is(err, repository.ErrObjectConflict) {
			slog.Warn("object id collision, retrying")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create object: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to allocate object id: %w", repository.ErrObjectConflict)
}

// ObjectURL builds the download URL. It is the only place the key appears.
func (s *TransferService) ObjectURL(id, key, filename string) string {
	return s.cfg.BaseURL + "/d/" + id + "/" + key + "/" + url.PathEscape(filename)
}

type DownloadInput struct {
	ID        string
	Key       string
	Filename  string
	Delete    bool // explicit delete request, acknowledged without content
	UserAgent string
}

type DownloadResult struct {
	Filtered bool // crawler request, answered with an empty body
	Deleted  bool // explicit delete acknowledged
	Content  []byte
	Filename string
	MimeType string
	Checksum string
}

// Download decrypts an object for the holder of its key. One-shot objects
// are deleted after the first successful decrypt; when several readers race,
// only the one whose delete removed the row gets the content.
func (s *TransferService) Download(ctx context.Context, in DownloadInput) (*DownloadResult, error) {
	if s.agents.Blocked(in.UserAgent) {
		return &DownloadResult{Filtered: true}, nil
	}

	obj, err := s.objects.Get(ctx, in.ID, in.Filename, utcNow(s.now))
	if errors.Is(err, repository.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ciphertext, err := s.ciphertext(ctx, obj)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plaintext, err := cryptox.Decrypt(in.Key, ciphertext)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if in.Delete || obj.OneShot {
		n, err := s.remove(ctx, obj)
		if err != nil {
			return nil, err
		}
		if n == 0 && !in.Delete {
			return nil, ErrNotFound
		}
	}

	if in.Delete {
		return &DownloadResult{Deleted: true}, nil
	}

	return &DownloadResult{
		Content:  plaintext,
		Filename: obj.Filename,
		MimeType: obj.MimeType,
		Checksum: obj.Checksum,
	}, nil
}

// Remove deletes a live object without checking its key.
func (s *TransferService) Remove(ctx context.Context, id, filename string) error {
	obj, err := s.objects.Get(ctx, id, filename, utcNow(s.now))
	if errors.Is(err, repository.ErrObjectNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	n, err := s.remove(ctx, obj)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TransferService) ciphertext(ctx context.Context, obj *model.Object) ([]byte, error) {
	if obj.IsInline() {
		return obj.Data, nil
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("object %s is stored externally but no blob storage is configured", obj.ID)
	}
	data, err := s.blobs.Get(ctx, obj.BlobKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// remove deletes the row and, if this call removed it, its external blob.
func (s *TransferService) remove(ctx context.Context, obj *model.Object) (int64, error) {
	n, err := s.objects.Delete(ctx, obj.ID)
	if err != nil {
		return 0, err
	}
	if n > 0 && !obj.IsInline() {
		s.deleteBlob(ctx, obj.BlobKey)
	}
	return n, nil
}

// deleteBlob is best effort; the reaper does not see orphaned blobs, so
// failures are logged for manual cleanup.
func (s *TransferService) deleteBlob(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), blobCleanupTimeout)
	defer cancel()

	err := s.blobs.Delete(ctx, key)
	if err != nil {
		slog.Error("failed to delete blob from storage", "error", err, "blob_key", key)
	}
}

// detectMimeType guesses from the extension, then falls back to text for
// valid UTF-8 and octet-stream for everything else.
func detectMimeType(filename string, content []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	if utf8.Valid(content) {
		return mimeText
	}
	return mimeOctetStream
}
