package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
)

type usersRepo struct {
	q   *queries
	now func() time.Time
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.getUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.getUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	updated := u.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}

	return mapConstraint(r.q.createUser(ctx, userRow{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(role),
		CreatedAt:    toMillis(created),
		UpdatedAt:    toMillis(updated),
	}))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	n, err := r.q.deleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
