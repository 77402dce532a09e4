package core

import "context"

// Session is the local authentication session handle injected into the
// resolvers. It is owned by the identity provider; this flow never creates
// or destroys one (login/logout stay external).
type Session interface {
	// Authenticated reports whether the session is live.
	Authenticated() bool
	// Identity returns the locally-known opaque identity token, or "" when
	// the session is not authenticated.
	Identity() string
	// Email returns the caller's email address if the provider exposes one.
	Email() string
	// Token returns the raw credential presented to the remote service on
	// identity-implicit calls.
	Token() string
}

type ctxKey int

const tokenKey ctxKey = 1

// ContextWithToken attaches a session credential to ctx; remote service
// clients present it on every call made with that ctx.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the session credential attached to ctx, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
