package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleOwner, RoleEditor, RoleReader, RoleUser} {
		require.True(t, r.Valid(), string(r))
	}
	require.False(t, Role("admin").Valid())
	require.False(t, Role("").Valid())
}

func TestRefreshTokenActive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	next := "child"

	tests := []struct {
		name   string
		token  RefreshToken
		active bool
	}{
		{"fresh", RefreshToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired but never revoked", RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", RefreshToken{ExpiresAt: now}, false},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &now}, false},
		{"rotated", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &now, ReplacedByTokenID: &next}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.active, tt.token.Active(now))
		})
	}

	require.True(t, RefreshToken{RevokedAt: &now, ReplacedByTokenID: &next}.Rotated())
	require.False(t, RefreshToken{RevokedAt: &now}.Rotated())
}
