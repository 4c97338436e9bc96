package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/storetest"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRefreshTokensContract(t *testing.T) {
	storetest.RunRefreshTokens(t, func(t *testing.T, clock *storetest.Clock) storetest.Harness {
		_, rdb := newMiniredis(t)
		return storetest.Harness{Tokens: NewStore(rdb, WithClock(clock.Now))}
	})
}

func TestPruneRunsInBatches(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	clock := storetest.NewClock()
	s := NewStore(rdb, WithClock(clock.Now), WithPruneBatch(2))

	for i := range 5 {
		require.NoError(t, s.CreateRefreshToken(ctx, domain.RefreshToken{
			TokenID:   fmt.Sprintf("rt-%d", i),
			UserID:    "u1",
			ExpiresAt: clock.Now().Add(time.Minute),
		}))
	}
	clock.Advance(time.Hour)

	n, err := s.DeleteExpiredRefreshTokens(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	require.False(t, mr.Exists(DefaultPrefix+"rt:expiry"))
	require.False(t, mr.Exists(DefaultPrefix+"rt:user:u1"))
}

func TestPrefixIsolatesDeployments(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniredis(t)

	a := NewStore(rdb, WithPrefix("a:"))
	b := NewStore(rdb, WithPrefix("b:"))

	rec := domain.RefreshToken{TokenID: "rt-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, a.CreateRefreshToken(ctx, rec))
	require.NoError(t, b.CreateRefreshToken(ctx, rec))

	require.NoError(t, a.RevokeRefreshToken(ctx, "rt-1"))

	active, err := b.IsRefreshTokenActive(ctx, "rt-1")
	require.NoError(t, err)
	require.True(t, active)
}

func TestRevokeAllDropsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	s := NewStore(rdb)

	require.NoError(t, s.CreateRefreshToken(ctx, domain.RefreshToken{
		TokenID: "rt-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour),
	}))
	mr.Del(DefaultPrefix + "rt:rt-1")

	n, err := s.RevokeAllUserRefreshTokens(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, n)

	members, err := rdb.SMembers(ctx, DefaultPrefix+"rt:user:u1").Result()
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestUnreachableServerIsNotAConflict(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	s := NewStore(rdb)
	mr.Close()

	err := s.RotateRefreshToken(ctx, "rt-1", domain.RefreshToken{
		TokenID: "rt-2", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, ErrUnavailable)
	require.NotErrorIs(t, err, store.ErrConflict)

	_, err = s.IsRefreshTokenActive(ctx, "rt-1")
	require.ErrorIs(t, err, ErrUnavailable)

	require.Error(t, s.Ping(ctx))
}
