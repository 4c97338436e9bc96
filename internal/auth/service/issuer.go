package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/pkg/jwtx"
)

// IssuerConfig is fixed for the life of the process.
type IssuerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string

	// Now defaults to time.Now.
	Now func() time.Time
}

// RefreshCredential is a freshly minted refresh token together with the
// values its store record needs.
type RefreshCredential struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// RefreshSubject is what a verified refresh token says about itself.
type RefreshSubject struct {
	SubjectID string
	TokenID   string
}

// Issuer mints and verifies both credential kinds. It does no I/O.
type Issuer struct {
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	accessSigner    *jwtx.HS256Signer
	refreshSigner   *jwtx.HS256Signer
	accessVerifier  *jwtx.HS256Verifier
	refreshVerifier *jwtx.HS256Verifier
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("issuer: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("issuer: token TTLs must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := jwtx.VerifyOptions{Issuer: cfg.Issuer, Now: now}

	accessSigner, err := jwtx.NewSignerHS256(cfg.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("issuer: access secret: %w", err)
	}
	refreshSigner, err := jwtx.NewSignerHS256(cfg.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("issuer: refresh secret: %w", err)
	}
	accessVerifier, err := jwtx.NewVerifierHS256(cfg.AccessSecret, opts)
	if err != nil {
		return nil, fmt.Errorf("issuer: access secret: %w", err)
	}
	refreshVerifier, err := jwtx.NewVerifierHS256(cfg.RefreshSecret, opts)
	if err != nil {
		return nil, fmt.Errorf("issuer: refresh secret: %w", err)
	}

	return &Issuer{
		issuer:          cfg.Issuer,
		accessTTL:       cfg.AccessTTL,
		refreshTTL:      cfg.RefreshTTL,
		now:             now,
		accessSigner:    accessSigner,
		refreshSigner:   refreshSigner,
		accessVerifier:  accessVerifier,
		refreshVerifier: refreshVerifier,
	}, nil
}

// AccessTTL is the lifetime of access tokens minted by this issuer.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// Now is the issuer's clock.
func (i *Issuer) Now() time.Time { return i.now() }

// IssueAccess mints an access token for u.
func (i *Issuer) IssueAccess(u domain.User) (string, time.Time, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Email, string(u.Role), i.issuer, i.accessTTL, i.now())
	token, err := i.accessSigner.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue access token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssueRefresh mints a refresh token with a new token id. ExpiresAt is the
// exp claim exactly so the store record and the token agree.
func (i *Issuer) IssueRefresh(userID string) (RefreshCredential, error) {
	claims := jwtx.NewRefreshClaims(userID, jwtx.NewJTI(), i.issuer, i.refreshTTL, i.now())
	token, err := i.refreshSigner.Sign(claims)
	if err != nil {
		return RefreshCredential{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return RefreshCredential{
		Token:     token,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyAccess returns the caller of a valid access token. Every failure
// matches ErrUnauthorized; the jwtx cause is kept in the message for logs.
func (i *Issuer) VerifyAccess(token string) (domain.Principal, error) {
	claims, err := i.accessVerifier.VerifyAccess(token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return domain.Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
	}, nil
}

// VerifyRefresh returns the subject and token id of a valid refresh token.
// It says nothing about whether the token is still active in the store.
func (i *Issuer) VerifyRefresh(token string) (RefreshSubject, error) {
	claims, err := i.refreshVerifier.VerifyRefresh(token)
	if err != nil {
		return RefreshSubject{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return RefreshSubject{SubjectID: claims.Subject, TokenID: claims.ID}, nil
}
