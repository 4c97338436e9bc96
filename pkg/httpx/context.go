package httpx

import "context"

type ctxKey string

const CtxKeyPrincipal ctxKey = "principal"

// Principal is the identity the gateway extracted from a verified access
// token.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal set by AuthnMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}
