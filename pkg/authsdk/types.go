package authsdk

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Password length bounds enforced at registration, in bytes. The upper bound
// is bcrypt's input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MaxEmailLength    = 254
)

var validate = validator.New()

// ============================================================================
// Request Types
// ============================================================================

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate applies the registration rules. Surrounding whitespace in the
// email is ignored, matching how the server normalises it. Returns a map of
// field names to reasons, or nil if the request is valid.
func (r CredentialsRequest) Validate() map[string]string {
	errs := make(map[string]string)

	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		errs["email"] = "required"
	case len(email) > MaxEmailLength:
		errs["email"] = "too long (max 254)"
	case validate.Var(email, "email") != nil:
		errs["email"] = "must be a valid email address"
	}

	switch {
	case r.Password == "":
		errs["password"] = "required"
	case len(r.Password) < MinPasswordLength:
		errs["password"] = "too short (min 8)"
	case len(r.Password) > MaxPasswordLength:
		errs["password"] = "too long (max 72 bytes)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateLogin only requires both fields to be present. Login must not
// reveal the registration rules.
func (r CredentialsRequest) ValidateLogin() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "required"
	}
	if r.Password == "" {
		errs["password"] = "required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RefreshRequest is the body of refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Validate() map[string]string {
	if r.RefreshToken == "" {
		return map[string]string{"refreshToken": "required"}
	}
	return nil
}

// ============================================================================
// Response Types
// ============================================================================

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is returned by register, login and refresh. User is only set
// by register and login.
type AuthResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expiresIn"`
}

// MeResponse wraps the caller's account.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// SessionInfo describes one refresh record of the caller.
type SessionInfo struct {
	TokenID           string     `json:"tokenId"`
	ExpiresAt         time.Time  `json:"expiresAt"`
	RevokedAt         *time.Time `json:"revokedAt"`
	ReplacedByTokenID *string    `json:"replacedByTokenId"`
	CreatedAt         time.Time  `json:"createdAt"`
	Active            bool       `json:"active"`
}

// SessionsResponse lists the caller's refresh records, newest first.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// TokenStats counts refresh records.
type TokenStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Revoked int64 `json:"revoked"`
}

// MetricsResponse is returned by GET /api/metrics.
type MetricsResponse struct {
	UptimeMs int64      `json:"uptimeMs"`
	Tokens   TokenStats `json:"tokens"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database is the status of the user store.
	Database string `json:"database"`

	// Revocation is the status of the refresh token store. It is the database
	// unless the redis backend is configured.
	Revocation string `json:"revocation"`
}
