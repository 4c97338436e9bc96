package authsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Session holds a credential pair and keeps it fresh. It is safe for
// concurrent use.
//
// Refresh tokens are single use, so concurrent callers that need a refresh
// share one in-flight request instead of each presenting the same token.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	user         *UserResponse
	accessToken  string
	refreshToken string

	refreshes singleflight.Group
}

// ErrNoRefreshToken is returned by Refresh on a session without a refresh
// token.
var ErrNoRefreshToken = errors.New("authsdk: session has no refresh token")

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the account from login, or nil for sessions built from tokens.
func (s *Session) User() *UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh rotates the session's refresh token. Callers that observed the same
// refresh token share one request and its result. A caller whose token was
// already rotated by someone else returns without a request.
func (s *Session) Refresh(ctx context.Context) error {
	seen := s.RefreshToken()
	if seen == "" {
		return ErrNoRefreshToken
	}

	_, err, _ := s.refreshes.Do(seen, func() (any, error) {
		if s.RefreshToken() != seen {
			return nil, nil
		}

		resp, err := s.client.Refresh(ctx, seen)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.accessToken = resp.AccessToken
		s.refreshToken = resp.RefreshToken
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	return nil
}

// Do sends req with the session's access token. On a 401 it refreshes once
// and retries once. Requests with a body are only retried when req.GetBody is
// set.
func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token := s.AccessToken()
	resp, err := s.send(ctx, req, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// Another caller may have refreshed while this request was in flight.
	if s.AccessToken() == token {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		retry.Body = body
	}
	return s.send(ctx, retry, s.AccessToken())
}

func (s *Session) send(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(ctx)
	r.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.client.HTTPClient.Do(r)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (s *Session) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := s.client.newRequest(ctx, method, path, nil, "")
	if err != nil {
		return nil, err
	}
	return s.Do(ctx, req)
}

// Me returns the session's account.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/auth/me")
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me.User, nil
}

// Sessions lists the refresh records of the session's account.
func (s *Session) Sessions(ctx context.Context) ([]SessionInfo, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/auth/sessions")
	if err != nil {
		return nil, err
	}

	var out SessionsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// TokenStats reads the service metrics summary.
func (s *Session) TokenStats(ctx context.Context) (*MetricsResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/metrics")
	if err != nil {
		return nil, err
	}

	var out MetricsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogoutAll revokes every refresh token of the account, including this
// session's. The access token stays valid until it expires.
func (s *Session) LogoutAll(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodPost, "/api/auth/logout-all")
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Logout revokes this session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	rt := s.RefreshToken()
	if rt == "" {
		return ErrNoRefreshToken
	}
	return s.client.Logout(ctx, rt)
}
