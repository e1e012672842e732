package model

import (
	"time"
)

// Object is a stored encrypted upload. The decryption key is never part of it.
type Object struct {
	ID        string    `db:"id"`
	Filename  string    `db:"filename"`
	Checksum  string    `db:"checksum"` // hex SHA-256 of the plaintext
	MimeType  string    `db:"mimetype"`
	OneShot   bool      `db:"oneshot"`
	Data      []byte    `db:"data"`     // ciphertext, empty when BlobKey is set
	BlobKey   string    `db:"blob_key"` // key in the external blob store, "" = inline
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (o *Object) IsExpired(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}

func (o *Object) IsInline() bool {
	return o.BlobKey == ""
}
