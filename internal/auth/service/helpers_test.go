package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

var (
	testAccessSecret  = []byte("test-access-secret-0123456789")
	testRefreshSecret = []byte("test-refresh-secret-0123456789")
)

const testIssuer = "grimoire-test"

type testEnv struct {
	clock  *storetest.Clock
	store  *sqlite.Store
	issuer *Issuer
	users  *UserService
	tokens *TokenService
}

func newTestIssuer(t *testing.T, clock *storetest.Clock) *Issuer {
	t.Helper()

	issuer, err := NewIssuer(IssuerConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        testIssuer,
		Now:           clock.Now,
	})
	require.NoError(t, err)
	return issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := storetest.NewClock()

	s, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "grimoire.db")), sqlite.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	issuer := newTestIssuer(t, clock)
	return &testEnv{
		clock:  clock,
		store:  s,
		issuer: issuer,
		users:  &UserService{Store: s, BcryptCost: 10},
		tokens: &TokenService{
			Issuer: issuer,
			Users:  s.Users(),
			Tokens: s.RefreshTokens(),
		},
	}
}

// login registers a user on first use and returns a fresh pair for them.
func (e *testEnv) login(t *testing.T, email string) (domain.User, *domain.TokenPair) {
	t.Helper()
	ctx := context.Background()

	u, err := e.users.Register(ctx, email, "StrongP@ss1")
	if errors.Is(err, ErrConflict) {
		u, err = e.users.Authenticate(ctx, email, "StrongP@ss1")
	}
	require.NoError(t, err)

	pair, err := e.tokens.IssuePair(ctx, u, "login")
	require.NoError(t, err)
	return u, pair
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingTokens simulates a revocation store that cannot be reached.
type failingTokens struct {
	store.RefreshTokens
	err error
}

func (f failingTokens) RotateRefreshToken(context.Context, string, domain.RefreshToken) error {
	return f.err
}

func (f failingTokens) IsRefreshTokenActive(context.Context, string) (bool, error) {
	return false, f.err
}

func (f failingTokens) DeleteExpiredRefreshTokens(context.Context) (int64, error) {
	return 0, f.err
}
