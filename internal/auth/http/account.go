package http

import (
	"net/http"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
)

// AccountHandler serves the bearer-authenticated routes about the caller.
type AccountHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// principal converts the gateway's principal into the domain one.
func principal(r *http.Request) (domain.Principal, bool) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok || p.UserID == "" {
		return domain.Principal{}, false
	}
	return domain.Principal{UserID: p.UserID, Email: p.Email, Role: domain.Role(p.Role)}, true
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Returns the account the access token belongs to.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse	"user"
//	@Failure		401	{object}	authsdk.APIError	"invalid or expired credentials"
//	@Failure		404	{object}	authsdk.APIError	"account no longer exists"
//	@Failure		500	{object}	authsdk.APIError	"internal server error"
//	@Router			/api/auth/me [get]
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{User: userResponse(user)})
}

// HandleSessions godoc
//
//	@Summary		List sessions
//	@Description	Lists every refresh token record of the caller, newest first, including revoked ones.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionsResponse	"sessions"
//	@Failure		401	{object}	authsdk.APIError			"invalid or expired credentials"
//	@Failure		500	{object}	authsdk.APIError			"internal server error"
//	@Router			/api/auth/sessions [get]
func (h *AccountHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	records, err := h.TokenService.Sessions(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := h.TokenService.Issuer.Now()
	out := authsdk.SessionsResponse{Sessions: make([]authsdk.SessionInfo, 0, len(records))}
	for _, rec := range records {
		out.Sessions = append(out.Sessions, authsdk.SessionInfo{
			TokenID:           rec.TokenID,
			ExpiresAt:         rec.ExpiresAt,
			RevokedAt:         rec.RevokedAt,
			ReplacedByTokenID: rec.ReplacedByTokenID,
			CreatedAt:         rec.CreatedAt,
			Active:            rec.Active(now),
		})
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleLogoutAll godoc
//
//	@Summary		Logout everywhere
//	@Description	Revokes every active refresh token of the caller. Access tokens already issued stay valid until they expire.
//	@Tags			Account
//	@Security		BearerAuth
//	@Success		204
//	@Failure		401	{object}	authsdk.APIError	"invalid or expired credentials"
//	@Failure		500	{object}	authsdk.APIError	"internal server error"
//	@Router			/api/auth/logout-all [post]
func (h *AccountHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		httpx.WriteUnauthorized(w)
		return
	}

	if _, err := h.TokenService.LogoutAll(r.Context(), p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
