package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/grimoire/internal/auth/service"
	"github.com/aussiebroadwan/grimoire/pkg/authsdk"
	"github.com/aussiebroadwan/grimoire/pkg/httpx"
	"github.com/aussiebroadwan/grimoire/pkg/slogx"
)

// writeServiceError maps a service error to its response. Unknown errors are
// logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized, "invalid credentials", nil)
	case errors.Is(err, service.ErrUnauthorized):
		httpx.WriteUnauthorized(w)
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, authsdk.ErrorCodeValidation, "invalid request", nil)
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, authsdk.ErrorCodeConflict, "email already registered", nil)
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, authsdk.ErrorCodeNotFound, "not found", nil)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, authsdk.ErrorCodeInternal, "internal server error", nil)
	}
}

func writeValidationError(w http.ResponseWriter, details map[string]string) {
	httpx.WriteError(w, http.StatusBadRequest, authsdk.ErrorCodeValidation, "invalid request", details)
}

func writeBadBody(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, authsdk.ErrorCodeBadRequest, err.Error(), nil)
}
