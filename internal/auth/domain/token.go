package domain

import "time"

// TokenPair is what register, login and refresh hand back to the caller: a
// short-lived access token and a single-use refresh token.
type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    time.Duration `json:"-"` // lifetime of the access token
}

// RefreshToken is the stored record backing one refresh credential. The
// record, not the signature, decides whether the credential may still be
// exchanged.
type RefreshToken struct {
	TokenID           string // jti of the refresh JWT, primary key
	UserID            string
	ExpiresAt         time.Time
	RevokedAt         *time.Time // set once, never cleared
	ReplacedByTokenID *string    // next link in the rotation chain
	CreatedAt         time.Time
}

// Active reports whether the record can still be rotated or logged out.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

// Rotated reports whether the record was retired by a rotation rather than a
// logout.
func (t RefreshToken) Rotated() bool {
	return t.RevokedAt != nil && t.ReplacedByTokenID != nil
}

// RefreshTokenStats summarises the refresh_tokens table.
type RefreshTokenStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Revoked int64 `json:"revoked"`
}
