package service

import "errors"

var (
	// ErrUnauthorized covers every rejected credential and every failed
	// decryption, so callers cannot tell which check failed.
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrInvalidExpiry    = errors.New("invalid expiry")
)
