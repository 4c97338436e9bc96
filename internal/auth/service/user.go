package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
	"github.com/aussiebroadwan/grimoire/pkg/cryptox"
	"github.com/aussiebroadwan/grimoire/pkg/idx"
	"github.com/aussiebroadwan/grimoire/pkg/slogx"
)

type UserService struct {
	Store      store.Store
	BcryptCost int

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) cost() int {
	if s.BcryptCost == 0 {
		return cryptox.DefaultBcryptCost
	}
	return s.BcryptCost
}

// Register creates a user with the default role. An email that is already
// taken returns ErrConflict.
func (s *UserService) Register(ctx context.Context, email, password string) (domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, ErrValidation
	}

	// Hash outside the transaction so the write lock is not held for the
	// bcrypt work.
	hash, err := cryptox.HashPassword(password, s.cost())
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return domain.User{}, ErrValidation
		}
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return ErrConflict
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate checks an email and password. Unknown emails and wrong
// passwords both return ErrInvalidCredentials after one bcrypt comparison.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	email = NormalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("load user: %w", err)
		}
		s.burnComparison(password)
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Info("login failed", "user_id", u.ID)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}
	return u, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *UserService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = cryptox.DummyHash(s.cost())
	})
	if s.dummyErr == nil {
		_ = cryptox.VerifyPassword(password, s.dummyHash)
	}
}
