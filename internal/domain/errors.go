package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotConfigured   = errors.New("not configured")
	ErrProviderFailure = errors.New("provider failure")
	ErrConflict        = errors.New("conflict")
)
