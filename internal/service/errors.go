package service

import "errors"

// Extraction errors (surfaced on the upload path).
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorruptDocument   = errors.New("corrupt document")
)

// Generation errors (recorded per artifact, surfaced on artifact reads).
var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrModelRejected    = errors.New("model rejected request")
	ErrMalformedOutput  = errors.New("malformed model output")
)

// Store and scheduling errors.
var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrGenerationInProgress = errors.New("generation already in progress")
)

// Auth errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)
