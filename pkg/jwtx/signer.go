package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret a signer or verifier accepts.
const MinSecretLength = 24

var ErrWeakSecret = fmt.Errorf("jwtx: secret must be at least %d bytes", MinSecretLength)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(claims jwt.Claims) (string, error)
}

// HS256Signer signs tokens with a shared secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 copies secret so later changes to the caller's slice have
// no effect.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HS256Signer{secret: append([]byte(nil), secret...)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims jwt.Claims) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", errors.New("jwtx: nil signer")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
