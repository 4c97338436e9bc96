package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestNewIssuerRejectsBadConfig(t *testing.T) {
	t.Parallel()

	base := IssuerConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}

	t.Run("same secret", func(t *testing.T) {
		cfg := base
		cfg.RefreshSecret = cfg.AccessSecret
		_, err := NewIssuer(cfg)
		require.Error(t, err)
	})

	t.Run("short secret", func(t *testing.T) {
		cfg := base
		cfg.AccessSecret = []byte("short")
		_, err := NewIssuer(cfg)
		require.Error(t, err)
	})

	t.Run("zero ttl", func(t *testing.T) {
		cfg := base
		cfg.AccessTTL = 0
		_, err := NewIssuer(cfg)
		require.Error(t, err)
	})
}

func TestIssuerRoundTrip(t *testing.T) {
	t.Parallel()

	clock := storetest.NewClock()
	issuer := newTestIssuer(t, clock)
	u := domain.User{ID: "01HZXK3T1C9M6Y8Q2P7W4R5N0B", Email: "a@b.com", Role: domain.RoleEditor}

	access, accessExp, err := issuer.IssueAccess(u)
	require.NoError(t, err)
	require.WithinDuration(t, clock.Now().Add(15*time.Minute), accessExp, time.Second)

	p, err := issuer.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, domain.Principal{UserID: u.ID, Email: "a@b.com", Role: domain.RoleEditor}, p)

	refresh, err := issuer.IssueRefresh(u.ID)
	require.NoError(t, err)
	require.Zero(t, refresh.ExpiresAt.Nanosecond(), "expiry matches the second-precision exp claim")

	subject, err := issuer.VerifyRefresh(refresh.Token)
	require.NoError(t, err)
	require.Equal(t, RefreshSubject{SubjectID: u.ID, TokenID: refresh.TokenID}, subject)
}

func TestIssueRefreshMintsFreshIDs(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, storetest.NewClock())
	seen := map[string]bool{}
	for range 50 {
		c, err := issuer.IssueRefresh("u1")
		require.NoError(t, err)
		require.False(t, seen[c.TokenID])
		seen[c.TokenID] = true
	}
}

func TestIssuerVerifyFailuresAreUnauthorized(t *testing.T) {
	t.Parallel()

	clock := storetest.NewClock()
	issuer := newTestIssuer(t, clock)
	u := domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleUser}

	access, _, err := issuer.IssueAccess(u)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh(u.ID)
	require.NoError(t, err)

	_, err = issuer.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = issuer.VerifyAccess(refresh.Token)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = issuer.VerifyAccess("")
	require.ErrorIs(t, err, ErrUnauthorized)

	other, err := NewIssuer(IssuerConfig{
		AccessSecret:  []byte("a-completely-different-secret"),
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        testIssuer,
	})
	require.NoError(t, err)
	forged, _, err := other.IssueAccess(u)
	require.NoError(t, err)
	_, err = issuer.VerifyAccess(forged)
	require.ErrorIs(t, err, ErrUnauthorized)

	clock.Advance(16 * time.Minute)
	_, err = issuer.VerifyAccess(access)
	require.ErrorIs(t, err, ErrUnauthorized)
}
