package authsdk

import (
	"context"
	"net/http"
)

// Register creates an account and returns its first credential pair.
func (c *SDKClient) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authRequest(ctx, "/api/auth/register", CredentialsRequest{Email: email, Password: password}, http.StatusCreated)
}

// Login exchanges email and password for a credential pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authRequest(ctx, "/api/auth/login", CredentialsRequest{Email: email, Password: password}, http.StatusOK)
}

// Refresh rotates refreshToken. The presented token is unusable afterwards
// whether or not the response reaches the caller.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	return c.authRequest(ctx, "/api/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, http.StatusOK)
}

// Logout revokes refreshToken.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", RefreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// LogoutAll revokes every refresh token of the access token's owner.
func (c *SDKClient) LogoutAll(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout-all", nil, accessToken)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Me returns the account the access token belongs to.
func (c *SDKClient) Me(ctx context.Context, accessToken string) (*UserResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me.User, nil
}

// Sessions lists the refresh records of the access token's owner.
func (c *SDKClient) Sessions(ctx context.Context, accessToken string) ([]SessionInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/sessions", nil, accessToken)
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
func (c *SDKClient) TokenStats(ctx context.Context, accessToken string) (*MetricsResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/metrics", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var out MetricsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) authRequest(ctx context.Context, path string, body any, expected int) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := decodeJSON(resp, &out, expected); err != nil {
		return nil, err
	}
	return &out, nil
}
