package common

import (
	"errors"
)

var ErrUnauthorized = errors.New("unauthorized")
var ErrMissingField = errors.New("missing form field")
var ErrUploadTooLarge = errors.New("upload too large")
var ErrHashMismatch = errors.New("upload hash mismatch")
var ErrBlobNotFound = errors.New("blob not found")
var ErrInvalidHash = errors.New("invalid content hash")
var ErrQueueEmpty = errors.New("queue empty")
var ErrUnknownBackend = errors.New("unknown backend")

const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeTooLarge         = "TOO_LARGE"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeUnknown          = "UNKNOWN"
)
