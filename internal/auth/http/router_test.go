package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/grimoire/internal/auth/http"
	"github.com/aussiebroadwan/grimoire/internal/auth/metrics"
	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/stretchr/testify/require"
)

const password = "correct horse battery"

var generous = httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	URL    string
	client *authsdk.SDKClient
	store  *sqlite.Store
}

func newTestServer(t *testing.T, limits httpx.RateLimits, configure ...func(*authhttp.Router)) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "grimoire.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	issuer, err := service.NewIssuer(service.IssuerConfig{
		AccessSecret:  []byte("router-test-access-secret-0123"),
		RefreshSecret: []byte("router-test-refresh-secret-0123"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "grimoire-test",
	})
	require.NoError(t, err)

	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := authhttp.NewRouter(issuer, "test", m, limits, logger)
	router.UserService = &service.UserService{Store: st, BcryptCost: 10}
	router.TokenService = &service.TokenService{
		Issuer:  issuer,
		Users:   st.Users(),
		Tokens:  st.RefreshTokens(),
		Metrics: m,
	}
	router.Database = st
	for _, fn := range configure {
		fn(router)
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, client: authsdk.NewSDKClient(srv.URL), store: st}
}

func generousLimits() httpx.RateLimits {
	return httpx.RateLimits{Strict: generous, Moderate: generous, Lenient: generous}
}

func (s *testServer) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(s.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, authsdk.IsUnauthorized(err), "want 401, got %v", err)
}

// The full credential lifecycle as one client sees it.
func TestCredentialLifecycle(t *testing.T) {
	srv := newTestServer(t, generousLimits())
	c := srv.client
	ctx := t.Context()

	reg, err := c.Register(ctx, "Ada@Example.com ", password)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", reg.User.Email)
	require.Equal(t, "user", reg.User.Role)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.Equal(t, 900, reg.ExpiresIn)

	me, err := c.Me(ctx, reg.AccessToken)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, me.ID)

	// Rotation: the old refresh token works exactly once.
	r1, err := c.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, reg.RefreshToken, r1.RefreshToken)
	require.Nil(t, r1.User)

	_, err = c.Refresh(ctx, reg.RefreshToken)
	requireUnauthorized(t, err)

	r2, err := c.Refresh(ctx, r1.RefreshToken)
	require.NoError(t, err)

	// Logout retires r2; a second logout and a refresh with it both fail.
	require.NoError(t, c.Logout(ctx, r2.RefreshToken))
	requireUnauthorized(t, c.Logout(ctx, r2.RefreshToken))
	_, err = c.Refresh(ctx, r2.RefreshToken)
	requireUnauthorized(t, err)

	// Two fresh sessions, then logout-all.
	l1, err := c.Login(ctx, "ada@example.com", password)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, l1.User.ID)
	l2, err := c.Login(ctx, "ada@example.com", password)
	require.NoError(t, err)

	sessions, err := c.Sessions(ctx, l2.AccessToken)
	require.NoError(t, err)
	require.Len(t, sessions, 5)
	active := 0
	for _, s := range sessions {
		if s.Active {
			active++
			require.Nil(t, s.RevokedAt)
		}
	}
	require.Equal(t, 2, active)

	require.NoError(t, c.LogoutAll(ctx, l1.AccessToken))
	_, err = c.Refresh(ctx, l1.RefreshToken)
	requireUnauthorized(t, err)
	_, err = c.Refresh(ctx, l2.RefreshToken)
	requireUnauthorized(t, err)

	// Access tokens are not checked against the store.
	_, err = c.Me(ctx, l2.AccessToken)
	require.NoError(t, err)

	stats, err := c.TokenStats(ctx, l2.AccessToken)
	require.NoError(t, err)
	require.Equal(t, authsdk.TokenStats{Total: 5, Active: 0, Revoked: 5}, stats.Tokens)
	require.GreaterOrEqual(t, stats.UptimeMs, int64(0))
}

func TestRotationChainIsLinked(t *testing.T) {
	srv := newTestServer(t, generousLimits())
	ctx := t.Context()

	reg, err := srv.client.Register(ctx, "chain@example.com", password)
	require.NoError(t, err)
	_, err = srv.client.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)

	sessions, err := srv.client.Sessions(ctx, reg.AccessToken)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	child, parent := sessions[0], sessions[1]
	if child.ReplacedByTokenID != nil {
		child, parent = parent, child
	}
	require.True(t, child.Active)
	require.False(t, parent.Active)
	require.NotNil(t, parent.RevokedAt)
	require.NotNil(t, parent.ReplacedByTokenID)
	require.Equal(t, child.TokenID, *parent.ReplacedByTokenID)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, generousLimits())

	resp := srv.post(t, "/api/auth/register", `{"email":"nope","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	require.Equal(t, authsdk.ErrorCodeValidation, body.Error)
	require.Contains(t, body.Details, "email")
	require.Contains(t, body.Details, "password")

	resp = srv.post(t, "/api/auth/register", `{"email":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err := srv.client.Register(t.Context(), "dup@example.com", password)
	require.NoError(t, err)
	_, err = srv.client.Register(t.Context(), "DUP@example.com", password)
	require.True(t, authsdk.IsConflict(err))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestServer(t, generousLimits())
	_, err := srv.client.Register(t.Context(), "known@example.com", password)
	require.NoError(t, err)

	unknown := srv.post(t, "/api/auth/login", `{"email":"unknown@example.com","password":"whatever1"}`)
	wrong := srv.post(t, "/api/auth/login", `{"email":"known@example.com","password":"whatever1"}`)
	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)

	a, _ := io.ReadAll(unknown.Body)
	b, _ := io.ReadAll(wrong.Body)
	require.Equal(t, string(a), string(b))

	// Login only requires presence; no registration rules leak.
	resp := srv.post(t, "/api/auth/login", `{"email":"known@example.com"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]string{"password": "required"}, decodeError(t, resp).Details)
}

func TestRefreshRejectionsShareOneBody(t *testing.T) {
	srv := newTestServer(t, generousLimits())
	reg, err := srv.client.Register(t.Context(), "uniform@example.com", password)
	require.NoError(t, err)
	_, err = srv.client.Refresh(t.Context(), reg.RefreshToken)
	require.NoError(t, err)

	bodies := map[string]string{}
	for name, token := range map[string]string{
		"garbage":      "not-a-jwt",
		"access token": reg.AccessToken,
		"reused":       reg.RefreshToken,
	} {
		resp := srv.post(t, "/api/auth/refresh", `{"refreshToken":"`+token+`"}`)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
		b, _ := io.ReadAll(resp.Body)
		bodies[name] = string(b)
	}
	require.Equal(t, bodies["garbage"], bodies["access token"])
	require.Equal(t, bodies["garbage"], bodies["reused"])

	resp := srv.post(t, "/api/auth/refresh", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]string{"refreshToken": "required"}, decodeError(t, resp).Details)
}

func TestBearerRoutesRequireAccessToken(t *testing.T) {
	srv := newTestServer(t, generousLimits())
	reg, err := srv.client.Register(t.Context(), "bearer@example.com", password)
	require.NoError(t, err)

	_, err = srv.client.Me(t.Context(), "")
	requireUnauthorized(t, err)

	// A refresh token is not an access token.
	for _, path := range []string{"/api/auth/me", "/api/auth/sessions", "/api/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+reg.RefreshToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	requireUnauthorized(t, srv.client.LogoutAll(t.Context(), "garbage"))
}

func TestTokenResponsesAreNotCached(t *testing.T) {
	srv := newTestServer(t, generousLimits())

	resp := srv.post(t, "/api/auth/register", `{"email":"cache@example.com","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestDeletedUserCannotRefresh(t *testing.T) {
	srv := newTestServer(t, generousLimits())
	reg, err := srv.client.Register(t.Context(), "gone@example.com", password)
	require.NoError(t, err)

	require.NoError(t, srv.store.Users().DeleteUser(t.Context(), reg.User.ID))

	_, err = srv.client.Refresh(t.Context(), reg.RefreshToken)
	requireUnauthorized(t, err)

	// The access token still verifies but the account is gone.
	_, err = srv.client.Me(t.Context(), reg.AccessToken)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestStrictRateLimit(t *testing.T) {
	limits := generousLimits()
	limits.Strict = httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	srv := newTestServer(t, limits)

	body := `{"email":"limited@example.com","password":"wrong-password"}`
	for range 2 {
		resp := srv.post(t, "/api/auth/login", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := srv.post(t, "/api/auth/login", body)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeRateLimitExceeded, decodeError(t, resp).Error)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, generousLimits())

	live, err := srv.client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := srv.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Revocation)

	reg, err := srv.client.Register(t.Context(), "metrics@example.com", password)
	require.NoError(t, err)
	_, err = srv.client.Refresh(t.Context(), reg.RefreshToken)
	require.NoError(t, err)
	_, err = srv.client.Refresh(t.Context(), reg.RefreshToken)
	requireUnauthorized(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	text := buf.String()
	require.Contains(t, text, "grimoire_refresh_rotations_total 1")
	require.Contains(t, text, "grimoire_refresh_reuse_rejected_total 1")
	require.Contains(t, text, `grimoire_tokens_issued_total{reason="register"} 1`)
	require.Contains(t, text, `route="POST /api/auth/refresh"`)
}

func TestReadinessFailsWhenRevocationStoreIsDown(t *testing.T) {
	srv := newTestServer(t, generousLimits(), func(r *authhttp.Router) {
		r.Revocation = failingPinger{}
	})

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var health authsdk.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "error", health.Checks.Revocation)
}
