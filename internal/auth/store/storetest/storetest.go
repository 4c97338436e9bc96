// Package storetest holds a behavioural suite every store.RefreshTokens
// driver must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced clock shared between a test and the store
// under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at a millisecond-aligned instant so values survive a round
// trip through drivers that store unix milliseconds.
func NewClock() *Clock {
	return &Clock{now: time.UnixMilli(time.Now().UnixMilli()).UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Harness is what a driver test hands to the suite.
type Harness struct {
	Tokens store.RefreshTokens

	// SeedUser makes userID a valid owner for refresh tokens. Drivers without
	// a users table can leave it nil.
	SeedUser func(t *testing.T, userID string)
}

// RunRefreshTokens runs the suite. newHarness is called once per subtest
// with a fresh clock.
func RunRefreshTokens(t *testing.T, newHarness func(t *testing.T, clock *Clock) Harness) {
	t.Helper()

	setup := func(t *testing.T) (context.Context, Harness, *Clock) {
		clock := NewClock()
		h := newHarness(t, clock)
		if h.SeedUser == nil {
			h.SeedUser = func(*testing.T, string) {}
		}
		return context.Background(), h, clock
	}

	record := func(clock *Clock, userID string, ttl time.Duration) domain.RefreshToken {
		return domain.RefreshToken{
			TokenID:   uuid.NewString(),
			UserID:    userID,
			ExpiresAt: clock.Now().Add(ttl),
			CreatedAt: clock.Now(),
		}
	}

	t.Run("create then read back", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		rec := record(clock, "u1", time.Hour)
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))

		got, err := h.Tokens.GetRefreshToken(ctx, rec.TokenID)
		require.NoError(t, err)
		require.Equal(t, rec.TokenID, got.TokenID)
		require.Equal(t, "u1", got.UserID)
		require.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
		require.Nil(t, got.RevokedAt)
		require.Nil(t, got.ReplacedByTokenID)

		active, err := h.Tokens.IsRefreshTokenActive(ctx, rec.TokenID)
		require.NoError(t, err)
		require.True(t, active)
	})

	t.Run("duplicate token id is rejected", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		rec := record(clock, "u1", time.Hour)
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))
		require.ErrorIs(t, h.Tokens.CreateRefreshToken(ctx, rec), store.ErrAlreadyExists)
	})

	t.Run("unknown token is inactive and not found", func(t *testing.T) {
		ctx, h, _ := setup(t)

		active, err := h.Tokens.IsRefreshTokenActive(ctx, "missing")
		require.NoError(t, err)
		require.False(t, active)

		_, err = h.Tokens.GetRefreshToken(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expiry dominates a null revoked_at", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		rec := record(clock, "u1", time.Minute)
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))

		clock.Advance(2 * time.Minute)

		active, err := h.Tokens.IsRefreshTokenActive(ctx, rec.TokenID)
		require.NoError(t, err)
		require.False(t, active)

		got, err := h.Tokens.GetRefreshToken(ctx, rec.TokenID)
		require.NoError(t, err)
		require.Nil(t, got.RevokedAt)
	})

	t.Run("revoke is idempotent and monotonic", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		rec := record(clock, "u1", time.Hour)
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))

		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, rec.TokenID))
		first, err := h.Tokens.GetRefreshToken(ctx, rec.TokenID)
		require.NoError(t, err)
		require.NotNil(t, first.RevokedAt)

		clock.Advance(time.Minute)
		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, rec.TokenID))
		second, err := h.Tokens.GetRefreshToken(ctx, rec.TokenID)
		require.NoError(t, err)
		require.True(t, first.RevokedAt.Equal(*second.RevokedAt), "revoked_at must not move")

		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, "missing"))

		active, err := h.Tokens.IsRefreshTokenActive(ctx, rec.TokenID)
		require.NoError(t, err)
		require.False(t, active)
	})

	t.Run("revoke all only touches the user's active records", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")
		h.SeedUser(t, "u2")

		a := record(clock, "u1", time.Hour)
		b := record(clock, "u1", time.Hour)
		alreadyRevoked := record(clock, "u1", time.Hour)
		shortLived := record(clock, "u1", time.Minute)
		other := record(clock, "u2", time.Hour)
		for _, rec := range []domain.RefreshToken{a, b, alreadyRevoked, shortLived, other} {
			require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))
		}
		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, alreadyRevoked.TokenID))
		clock.Advance(2 * time.Minute)

		n, err := h.Tokens.RevokeAllUserRefreshTokens(ctx, "u1")
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		for _, id := range []string{a.TokenID, b.TokenID, alreadyRevoked.TokenID, shortLived.TokenID} {
			active, err := h.Tokens.IsRefreshTokenActive(ctx, id)
			require.NoError(t, err)
			require.False(t, active)
		}

		expired, err := h.Tokens.GetRefreshToken(ctx, shortLived.TokenID)
		require.NoError(t, err)
		require.Nil(t, expired.RevokedAt, "expired records are left alone")

		active, err := h.Tokens.IsRefreshTokenActive(ctx, other.TokenID)
		require.NoError(t, err)
		require.True(t, active)
	})

	t.Run("rotate retires the parent and links the child", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		parent := record(clock, "u1", time.Hour)
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, parent))

		child := record(clock, "u1", time.Hour)
		require.NoError(t, h.Tokens.RotateRefreshToken(ctx, parent.TokenID, child))

		old, err := h.Tokens.GetRefreshToken(ctx, parent.TokenID)
		require.NoError(t, err)
		require.NotNil(t, old.RevokedAt)
		require.NotNil(t, old.ReplacedByTokenID)
		require.Equal(t, child.TokenID, *old.ReplacedByTokenID)
		require.True(t, old.Rotated())

		active, err := h.Tokens.IsRefreshTokenActive(ctx, child.TokenID)
		require.NoError(t, err)
		require.True(t, active)
	})

	t.Run("rotate refuses inactive parents without side effects", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		rotated := record(clock, "u1", time.Hour)
		revoked := record(clock, "u1", time.Hour)
		expiring := record(clock, "u1", time.Minute)
		for _, rec := range []domain.RefreshToken{rotated, revoked, expiring} {
			require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))
		}
		require.NoError(t, h.Tokens.RotateRefreshToken(ctx, rotated.TokenID, record(clock, "u1", time.Hour)))
		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, revoked.TokenID))
		clock.Advance(2 * time.Minute)

		for name, parentID := range map[string]string{
			"already rotated": rotated.TokenID,
			"revoked":         revoked.TokenID,
			"expired":         expiring.TokenID,
			"missing":         "missing",
		} {
			child := record(clock, "u1", time.Hour)
			err := h.Tokens.RotateRefreshToken(ctx, parentID, child)
			require.ErrorIs(t, err, store.ErrConflict, name)

			_, err = h.Tokens.GetRefreshToken(ctx, child.TokenID)
			require.ErrorIs(t, err, store.ErrNotFound, "%s: child must not be persisted", name)
		}

		exp, err := h.Tokens.GetRefreshToken(ctx, expiring.TokenID)
		require.NoError(t, err)
		require.Nil(t, exp.RevokedAt)
		require.Nil(t, exp.ReplacedByTokenID)
	})

	t.Run("concurrent rotations of one parent yield one child", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		parent := record(clock, "u1", time.Hour)
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, parent))

		const attempts = 16
		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			conflicts atomic.Int32
			start     = make(chan struct{})
			errs      = make(chan error, attempts)
		)
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				err := h.Tokens.RotateRefreshToken(ctx, parent.TokenID, record(clock, "u1", time.Hour))
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, store.ErrConflict):
					conflicts.Add(1)
				default:
					errs <- err
				}
			}()
		}
		close(start)
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.EqualValues(t, 1, successes.Load())
		require.EqualValues(t, attempts-1, conflicts.Load())

		list, err := h.Tokens.ListUserRefreshTokens(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 2, "parent plus exactly one child")
	})

	t.Run("list is newest first", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		var ids []string
		for i := range 3 {
			rec := record(clock, "u1", time.Hour)
			rec.CreatedAt = clock.Now().Add(time.Duration(i) * time.Second)
			require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))
			ids = append(ids, rec.TokenID)
		}

		list, err := h.Tokens.ListUserRefreshTokens(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 3)
		require.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].TokenID, list[1].TokenID, list[2].TokenID})

		empty, err := h.Tokens.ListUserRefreshTokens(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("prune removes exactly the expired records", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		expiredActive := record(clock, "u1", time.Minute)
		expiredRevoked := record(clock, "u1", time.Minute)
		boundary := record(clock, "u1", 2*time.Minute)
		live := record(clock, "u1", time.Hour)
		liveRevoked := record(clock, "u1", time.Hour)
		for _, rec := range []domain.RefreshToken{expiredActive, expiredRevoked, boundary, live, liveRevoked} {
			require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec))
		}
		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, expiredRevoked.TokenID))
		require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, liveRevoked.TokenID))

		clock.Advance(2 * time.Minute) // boundary now has expires_at == now

		n, err := h.Tokens.DeleteExpiredRefreshTokens(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		for _, gone := range []string{expiredActive.TokenID, expiredRevoked.TokenID} {
			_, err := h.Tokens.GetRefreshToken(ctx, gone)
			require.ErrorIs(t, err, store.ErrNotFound)
		}
		for _, kept := range []string{boundary.TokenID, live.TokenID, liveRevoked.TokenID} {
			_, err := h.Tokens.GetRefreshToken(ctx, kept)
			require.NoError(t, err)
		}

		n, err = h.Tokens.DeleteExpiredRefreshTokens(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("stats count by state", func(t *testing.T) {
		ctx, h, clock := setup(t)
		h.SeedUser(t, "u1")

		for i := range 4 {
			rec := record(clock, "u1", time.Hour)
			require.NoError(t, h.Tokens.CreateRefreshToken(ctx, rec), fmt.Sprint(i))
			if i%2 == 0 {
				require.NoError(t, h.Tokens.RevokeRefreshToken(ctx, rec.TokenID))
			}
		}
		require.NoError(t, h.Tokens.CreateRefreshToken(ctx, record(clock, "u1", time.Minute)))
		clock.Advance(2 * time.Minute)

		stats, err := h.Tokens.RefreshTokenStats(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.RefreshTokenStats{Total: 5, Active: 2, Revoked: 2}, stats)
	})
}
