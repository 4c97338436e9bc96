package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinBcryptCost is the lowest cost the service accepts.
	MinBcryptCost = 10

	// DefaultBcryptCost is used when no cost is configured.
	DefaultBcryptCost = 12

	// MaxPasswordBytes is bcrypt's input limit. Longer inputs are refused
	// rather than silently truncated.
	MaxPasswordBytes = 72
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password mismatch")
	ErrPasswordTooLong  = fmt.Errorf("cryptox: password longer than %d bytes", MaxPasswordBytes)
)

// HashPassword returns a bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost < MinBcryptCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("cryptox: bcrypt cost %d outside [%d, %d]", cost, MinBcryptCost, bcrypt.MaxCost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Returns ErrPasswordMismatch for a wrong password and a wrapped error for a
// malformed hash. Input past bcrypt's 72 byte limit never matches.
func VerifyPassword(password, hash string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("cryptox: verify password: %w", err)
	}
}

// DummyHash returns a valid hash at cost that matches no real password. Login
// compares against it when the account does not exist so both paths pay for
// one bcrypt comparison.
func DummyHash(cost int) (string, error) {
	secret, err := GenerateToken(TokenSize256)
	if err != nil {
		return "", err
	}
	return HashPassword(secret[:MaxPasswordBytes/2], cost)
}
