package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db DBTX
}

func newQueries(db DBTX) *queries {
	return &queries{db: db}
}

type userRow struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    int64
	UpdatedAt    int64
}

type refreshTokenRow struct {
	TokenID           string
	UserID            string
	ExpiresAt         int64
	RevokedAt         sql.NullInt64
	ReplacedByTokenID sql.NullString
	CreatedAt         int64
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, password_hash, role, created_at, updated_at
FROM users WHERE id = ?`

func (q *queries) getUserByID(ctx context.Context, id string) (userRow, error) {
	var u userRow
	err := q.db.QueryRowContext(ctx, getUserByID, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, password_hash, role, created_at, updated_at
FROM users WHERE email = ?`

func (q *queries) getUserByEmail(ctx context.Context, email string) (userRow, error) {
	var u userRow
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *queries) createUser(ctx context.Context, u userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	return err
}

const deleteUser = `-- name: DeleteUser :exec
DELETE FROM users WHERE id = ?`

func (q *queries) deleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createRefreshToken = `-- name: CreateRefreshToken :exec
INSERT INTO refresh_tokens (token_id, user_id, expires_at, revoked_at, replaced_by_token_id, created_at)
VALUES (?, ?, ?, NULL, NULL, ?)`

func (q *queries) createRefreshToken(ctx context.Context, r refreshTokenRow) error {
	_, err := q.db.ExecContext(ctx, createRefreshToken, r.TokenID, r.UserID, r.ExpiresAt, r.CreatedAt)
	return err
}

const getRefreshToken = `-- name: GetRefreshToken :one
SELECT token_id, user_id, expires_at, revoked_at, replaced_by_token_id, created_at
FROM refresh_tokens WHERE token_id = ?`

func (q *queries) getRefreshToken(ctx context.Context, tokenID string) (refreshTokenRow, error) {
	var r refreshTokenRow
	err := q.db.QueryRowContext(ctx, getRefreshToken, tokenID).
		Scan(&r.TokenID, &r.UserID, &r.ExpiresAt, &r.RevokedAt, &r.ReplacedByTokenID, &r.CreatedAt)
	return r, err
}

const countActiveRefreshToken = `-- name: CountActiveRefreshToken :one
SELECT COUNT(*) FROM refresh_tokens
WHERE token_id = ? AND revoked_at IS NULL AND expires_at > ?`

func (q *queries) countActiveRefreshToken(ctx context.Context, tokenID string, now time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActiveRefreshToken, tokenID, toMillis(now)).Scan(&n)
	return n, err
}

const revokeRefreshToken = `-- name: RevokeRefreshToken :execrows
UPDATE refresh_tokens SET revoked_at = ?
WHERE token_id = ? AND revoked_at IS NULL`

func (q *queries) revokeRefreshToken(ctx context.Context, tokenID string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, revokeRefreshToken, toMillis(now), tokenID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const revokeAllUserRefreshTokens = `-- name: RevokeAllUserRefreshTokens :execrows
UPDATE refresh_tokens SET revoked_at = ?1
WHERE user_id = ?2 AND revoked_at IS NULL AND expires_at > ?1`

func (q *queries) revokeAllUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, revokeAllUserRefreshTokens, toMillis(now), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// retireRefreshToken is the conditional half of a rotation: it only touches
// the row while it is still active.
const retireRefreshToken = `-- name: RetireRefreshToken :execrows
UPDATE refresh_tokens SET revoked_at = ?1, replaced_by_token_id = ?2
WHERE token_id = ?3 AND revoked_at IS NULL AND expires_at > ?1`

func (q *queries) retireRefreshToken(
	ctx context.Context,
	tokenID, replacedBy string,
	now time.Time,
) (int64, error) {
	res, err := q.db.ExecContext(ctx, retireRefreshToken, toMillis(now), replacedBy, tokenID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listUserRefreshTokens = `-- name: ListUserRefreshTokens :many
SELECT token_id, user_id, expires_at, revoked_at, replaced_by_token_id, created_at
FROM refresh_tokens WHERE user_id = ?
ORDER BY created_at DESC, token_id DESC`

func (q *queries) listUserRefreshTokens(ctx context.Context, userID string) ([]refreshTokenRow, error) {
	rows, err := q.db.QueryContext(ctx, listUserRefreshTokens, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []refreshTokenRow
	for rows.Next() {
		var r refreshTokenRow
		if err := rows.Scan(
			&r.TokenID, &r.UserID, &r.ExpiresAt, &r.RevokedAt, &r.ReplacedByTokenID, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const deleteExpiredRefreshTokens = `-- name: DeleteExpiredRefreshTokens :execrows
DELETE FROM refresh_tokens WHERE expires_at < ?`

func (q *queries) deleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredRefreshTokens, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const refreshTokenStats = `-- name: RefreshTokenStats :one
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN revoked_at IS NULL AND expires_at > ?1 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN revoked_at IS NOT NULL THEN 1 ELSE 0 END), 0)
FROM refresh_tokens`

func (q *queries) refreshTokenStats(ctx context.Context, now time.Time) (total, active, revoked int64, err error) {
	err = q.db.QueryRowContext(ctx, refreshTokenStats, toMillis(now)).Scan(&total, &active, &revoked)
	return total, active, revoked, err
}
