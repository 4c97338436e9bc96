package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. The HTTP layer maps each one to a
// status code; anything else is an internal error.
var (
	ErrValidation   = errors.New("validation_error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")

	// ErrInvalidCredentials is a bad login. It matches ErrUnauthorized.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid_credentials", ErrUnauthorized)
)
