package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by RotateRefreshToken when the record being
	// rotated is no longer active at the moment the update runs.
	ErrConflict = errors.New("store: conditional update failed")
)

// Store is the root data access interface. Concrete drivers implement this
// and expose sub-repositories so a transaction can only ever be opened from
// the root, never from inside another transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A nil return commits, anything
	// else rolls back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// RevocationStore is a RefreshTokens backend that lives outside the main
// database (for example redis).
type RevocationStore interface {
	RefreshTokens
	Ping(ctx context.Context) error
	Close() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. The email must already be normalised.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID). A
	// duplicate email returns ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// DeleteUser cascades to refresh_tokens (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

// RefreshTokens is the revocation store. Every method is a single atomic
// operation against the backing store.
type RefreshTokens interface {
	// CreateRefreshToken stores a new active record. A duplicate token id
	// returns ErrAlreadyExists.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshToken returns a single record regardless of its state.
	GetRefreshToken(ctx context.Context, tokenID string) (domain.RefreshToken, error)

	// IsRefreshTokenActive is true iff the record exists, is not revoked and
	// has not expired. A missing record is not an error.
	IsRefreshTokenActive(ctx context.Context, tokenID string) (bool, error)

	// RevokeRefreshToken sets revoked_at if it is not already set. Absent or
	// already revoked records are a no-op.
	RevokeRefreshToken(ctx context.Context, tokenID string) error

	// RevokeAllUserRefreshTokens revokes every active record owned by the user
	// and returns how many were revoked.
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// RotateRefreshToken retires oldTokenID (revoked_at=now,
	// replaced_by_token_id=next.TokenID) and inserts next, but only if
	// oldTokenID is active when the update executes. Otherwise it returns
	// ErrConflict and mutates nothing.
	RotateRefreshToken(ctx context.Context, oldTokenID string, next domain.RefreshToken) error

	// ListUserRefreshTokens returns every record owned by the user, newest first.
	ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error)

	// DeleteExpiredRefreshTokens removes every record with expires_at < now,
	// revoked or not, and returns the number removed.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)

	// RefreshTokenStats counts records by state.
	RefreshTokenStats(ctx context.Context) (domain.RefreshTokenStats, error)
}
