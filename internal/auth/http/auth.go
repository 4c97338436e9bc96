package http

import (
	"net/http"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/metrics"
	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
)

// AuthHandler serves the unauthenticated credential routes.
type AuthHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates an account and returns its first access and refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.CredentialsRequest	true	"Email and password (password 8-72 bytes)"
//	@Success		201		{object}	authsdk.AuthResponse		"user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.APIError			"error, message, details"
//	@Failure		409		{object}	authsdk.APIError			"email already registered"
//	@Failure		429		{object}	authsdk.APIError			"rate limit exceeded"
//	@Failure		500		{object}	authsdk.APIError			"internal server error"
//	@Header			201		{string}	Cache-Control				"no-store"
//	@Router			/api/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	ctx := r.Context()
	user, err := h.UserService.Register(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.TokenService.IssuePair(ctx, user, metrics.ReasonRegister)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authResponse(&user, pair))
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for an access and refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.CredentialsRequest	true	"Email and password"
//	@Success		200		{object}	authsdk.AuthResponse		"user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.APIError			"missing fields"
//	@Failure		401		{object}	authsdk.APIError			"invalid credentials"
//	@Failure		429		{object}	authsdk.APIError			"rate limit exceeded"
//	@Failure		500		{object}	authsdk.APIError			"internal server error"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	if errs := req.ValidateLogin(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	ctx := r.Context()
	user, err := h.UserService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.TokenService.IssuePair(ctx, user, metrics.ReasonLogin)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(&user, pair))
}

// HandleRefresh godoc
//
//	@Summary		Rotate refresh token
//	@Description	Exchanges a refresh token for a new pair. The presented token is retired; presenting it again returns 401.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.AuthResponse	"accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.APIError		"missing refreshToken"
//	@Failure		401		{object}	authsdk.APIError		"invalid or expired credentials"
//	@Failure		429		{object}	authsdk.APIError		"rate limit exceeded"
//	@Failure		500		{object}	authsdk.APIError		"internal server error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(nil, pair))
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revokes a refresh token. A token that is already revoked, rotated or expired returns 401.
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	authsdk.RefreshRequest	true	"Refresh token"
//	@Success		204
//	@Failure		400	{object}	authsdk.APIError	"missing refreshToken"
//	@Failure		401	{object}	authsdk.APIError	"invalid or expired credentials"
//	@Failure		500	{object}	authsdk.APIError	"internal server error"
//	@Router			/api/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	if err := h.TokenService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func authResponse(u *domain.User, pair *domain.TokenPair) authsdk.AuthResponse {
	resp := authsdk.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
	if u != nil {
		user := userResponse(*u)
		resp.User = &user
	}
	return resp
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}
