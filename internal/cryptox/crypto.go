package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// IDLength is the length of generated object identifiers (~131 bits).
	IDLength = 22
	// KeyLength is the length of generated object keys (~190 bits).
	KeyLength = 32

	frameVersion = 1
	nonceSize    = 12
	hkdfInfo     = "secureshare object v1"
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var (
	// ErrAuthentication is returned when a ciphertext cannot be opened with the
	// given key: wrong key, tampered data, truncated frame or unknown version.
	ErrAuthentication = errors.New("message authentication failed")
	ErrEmptyKey       = errors.New("empty key")
)

// RandomString returns a base62 string of length n read from crypto/rand.
// Bytes >= 248 are rejected so every symbol is equally likely.
func RandomString(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+8)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= 248 {
				continue
			}
			out = append(out, alphabet[b%62])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

func GenerateID() (string, error) {
	return RandomString(IDLength)
}

func GenerateKey() (string, error) {
	return RandomString(KeyLength)
}

// Checksum returns the lowercase hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// deriveKey stretches the URL key into a 256-bit AES key with HKDF-SHA256.
func deriveKey(key string) ([]byte, error) {
	out := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(key), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return out, nil
}

func newAEAD(key string) (cipher.AEAD, error) {
	derived, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-256-GCM under a key derived from key.
//
// The returned frame is laid out as version(1) || nonce(12) || sealed data,
// where sealed data carries the 16-byte GCM tag. The version byte is
// authenticated as additional data.
func Encrypt(key string, plaintext []byte) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+aead.Overhead())
	frame[0] = frameVersion
	if _, err := rand.Read(frame[1 : 1+nonceSize]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(frame, frame[1:1+nonceSize], plaintext, frame[:1]), nil
}

// Decrypt opens a frame produced by Encrypt. Every failure is reported as
// ErrAuthentication so callers cannot tell a wrong key from tampering.
func Decrypt(key string, frame []byte) ([]byte, error) {
	if key == "" {
		return nil, ErrAuthentication
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(frame) < 1+nonceSize+aead.Overhead() || frame[0] != frameVersion {
		return nil, ErrAuthentication
	}

	plaintext, err := aead.Open(nil, frame[1:1+nonceSize], frame[1+nonceSize:], frame[:1])
	if err != nil {
		return nil, ErrAuthentication
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
