package service

import "errors"

// Progress errors. Callers tell them apart with errors.Is.
var (
	// ErrInvalidReference means the word is not part of the category in the catalog
	ErrInvalidReference = errors.New("invalid word reference")
	// ErrUnknownCategory means the category id is not in the catalog
	ErrUnknownCategory = errors.New("unknown category")
	// ErrStoreUnavailable wraps any failure or timeout of the progress store.
	// Retrying the whole call is safe.
	ErrStoreUnavailable = errors.New("progress store unavailable")
	// ErrMissingAccount means no account id was supplied
	ErrMissingAccount = errors.New("account id is required")
)

// ErrNoAnswers means a quiz was submitted without any answers
var ErrNoAnswers = errors.New("no answers submitted")

// Auth errors
var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrAccountNotFound    = errors.New("account not found")
)
