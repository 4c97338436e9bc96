package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/grimoire/pkg/slogx"
)

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(token string) (Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(token string) (Principal, error)

func (f AuthenticatorFunc) Authenticate(token string) (Principal, error) { return f(token) }

// AuthnMiddleware rejects requests without a valid bearer access token. Every
// rejection gets the same 401 body; the cause is only logged.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Debug("authn: missing bearer token")
				WriteUnauthorized(w)
				return
			}

			p, err := a.Authenticate(raw)
			if err != nil {
				log.Debug("authn: token rejected", "err", err)
				WriteUnauthorized(w)
				return
			}

			ctx = WithPrincipal(ctx, p)
			ctx = slogx.WithUserID(ctx, p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const scheme = "Bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(scheme):])
	return token, token != ""
}

// WriteUnauthorized writes the single 401 response used for every credential
// failure.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired credentials", nil)
}
