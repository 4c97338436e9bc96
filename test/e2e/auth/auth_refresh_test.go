//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRegisterLoginRefreshLogout walks the whole credential lifecycle:
// 1. Register and log in
// 2. Rotate the refresh token and confirm the old one is dead
// 3. Log out and confirm the rotated token is dead too
func TestRegisterLoginRefreshLogout(t *testing.T) {
	client := setupAuthContainer(t)
	runLifecycle(t, client)
}

// TestRegisterLoginRefreshLogoutRedis runs the same lifecycle with refresh
// records stored in redis.
func TestRegisterLoginRefreshLogoutRedis(t *testing.T) {
	client := setupRedisBackedContainer(t)
	runLifecycle(t, client)
}

func runLifecycle(t *testing.T, client *authsdk.SDKClient) {
	t.Helper()
	ctx := t.Context()

	registerUser(t, client)

	login, err := client.Login(ctx, userEmail, userPassword)
	require.NoError(t, err)
	assertAuthResponse(t, login)

	me, err := client.Me(ctx, login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userEmail, me.Email)

	rotated, err := client.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assertAuthResponse(t, rotated)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken, "Refresh token should be rotated")

	_, err = client.Refresh(ctx, login.RefreshToken)
	assertUnauthorized(t, err, "A rotated refresh token must not be accepted again")

	require.NoError(t, client.Logout(ctx, rotated.RefreshToken))

	_, err = client.Refresh(ctx, rotated.RefreshToken)
	assertUnauthorized(t, err, "A logged out refresh token must not be accepted")
}

// TestLogoutAllRevokesEverySession verifies logout-all kills every refresh
// token of the user while leaving the access token usable until it expires.
func TestLogoutAllRevokesEverySession(t *testing.T) {
	client := setupAuthContainer(t)
	ctx := t.Context()

	first := registerUser(t, client)
	second, err := client.AuthenticateWithPassword(ctx, userEmail, userPassword)
	require.NoError(t, err)

	sessions, err := first.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	require.NoError(t, first.LogoutAll(ctx))

	_, err = client.Refresh(ctx, first.RefreshToken())
	assertUnauthorized(t, err, "first session")
	_, err = client.Refresh(ctx, second.RefreshToken())
	assertUnauthorized(t, err, "second session")

	_, err = client.Me(ctx, second.AccessToken())
	require.NoError(t, err, "Access tokens stay valid until they expire")
}
