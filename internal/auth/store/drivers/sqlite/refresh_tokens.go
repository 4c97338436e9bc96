package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
)

type refreshTokensRepo struct {
	q   *queries
	db  *sql.DB // nil when the repo is already bound to a transaction
	now func() time.Time
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	return mapConstraint(r.q.createRefreshToken(ctx, r.toRow(t)))
}

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, tokenID string) (domain.RefreshToken, error) {
	row, err := r.q.getRefreshToken(ctx, tokenID)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) IsRefreshTokenActive(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.q.countActiveRefreshToken(ctx, tokenID, r.now())
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, tokenID string) error {
	_, err := r.q.revokeRefreshToken(ctx, tokenID, r.now())
	return err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	return r.q.revokeAllUserRefreshTokens(ctx, userID, r.now())
}

// RotateRefreshToken runs the conditional retire and the insert in one
// transaction. RowsAffected on the retire is the compare-and-swap result.
func (r *refreshTokensRepo) RotateRefreshToken(
	ctx context.Context,
	oldTokenID string,
	next domain.RefreshToken,
) error {
	if r.db == nil {
		return r.rotate(ctx, r.q, oldTokenID, next)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.rotate(ctx, newQueries(tx), oldTokenID, next); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *refreshTokensRepo) rotate(
	ctx context.Context,
	q *queries,
	oldTokenID string,
	next domain.RefreshToken,
) error {
	n, err := q.retireRefreshToken(ctx, oldTokenID, next.TokenID, r.now())
	if err != nil {
		return err
	}
	if n != 1 {
		return store.ErrConflict
	}
	return mapConstraint(q.createRefreshToken(ctx, r.toRow(next)))
}

func (r *refreshTokensRepo) ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	rows, err := r.q.listUserRefreshTokens(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RefreshToken, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRefreshToken(row))
	}
	return out, nil
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return r.q.deleteExpiredRefreshTokens(ctx, r.now())
}

func (r *refreshTokensRepo) RefreshTokenStats(ctx context.Context) (domain.RefreshTokenStats, error) {
	total, active, revoked, err := r.q.refreshTokenStats(ctx, r.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RefreshTokenStats{}, nil
		}
		return domain.RefreshTokenStats{}, err
	}
	return domain.RefreshTokenStats{Total: total, Active: active, Revoked: revoked}, nil
}

func (r *refreshTokensRepo) toRow(t domain.RefreshToken) refreshTokenRow {
	created := t.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	return refreshTokenRow{
		TokenID:   t.TokenID,
		UserID:    t.UserID,
		ExpiresAt: toMillis(t.ExpiresAt),
		CreatedAt: toMillis(created),
	}
}
