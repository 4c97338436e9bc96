package httpx_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestPrincipalFromContext(t *testing.T) {
	t.Parallel()

	_, ok := httpx.PrincipalFromContext(context.Background())
	require.False(t, ok)

	want := httpx.Principal{UserID: "u1", Email: "ada@example.com", Role: "user"}
	got, ok := httpx.PrincipalFromContext(httpx.WithPrincipal(context.Background(), want))
	require.True(t, ok)
	require.Equal(t, want, got)
}

// The per-user limiter reads the principal the gateway stores, joined with
// the client IP.
func TestRateLimitByUserKeysOnPrincipal(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserID: "u1"}))

	key := httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, httpx.IPKeyExtractor)(req)
	require.Equal(t, "u1:10.0.0.1", key)
}
