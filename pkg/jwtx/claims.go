package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTL constants.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived because access tokens are never checked against a store.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token types carried in the "typ" claim. A verifier only accepts its own
// type, so an access token can never be replayed as a refresh token.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// AccessClaims are the claims of a short-lived access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"typ"`
}

// RefreshClaims are the claims of a refresh token. The jti is the id of the
// matching record in the revocation store.
type RefreshClaims struct {
	jwt.RegisteredClaims

	Type string `json:"typ"`
}

// NewAccessClaims builds access claims valid from now for ttl.
func NewAccessClaims(subject, email, role, issuer string, ttl time.Duration, now time.Time) AccessClaims {
	return AccessClaims{
		RegisteredClaims: registered(subject, "", issuer, ttl, now),
		Email:            email,
		Role:             role,
		Type:             TypeAccess,
	}
}

// NewRefreshClaims builds refresh claims for tokenID valid from now for ttl.
func NewRefreshClaims(subject, tokenID, issuer string, ttl time.Duration, now time.Time) RefreshClaims {
	return RefreshClaims{
		RegisteredClaims: registered(subject, tokenID, issuer, ttl, now),
		Type:             TypeRefresh,
	}
}

// NewJTI returns a random UUIDv4 for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

func registered(subject, jti, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
