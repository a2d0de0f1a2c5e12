package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so nobody else can read
// or shadow the values stored under it.
type contextKey string

const claimsKey contextKey = "claims"

// ErrorWriter renders an auth failure. The HTTP layer passes its own so
// 401/403 bodies use the same envelope as every other error.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequirePermission returns middleware that lets a request through only if
// it carries a valid bearer token granting permission.
//
// It is composed per route, so each route declares exactly the one
// permission it needs:
//
//	r.With(auth.RequirePermission(tokens, "get:books", writeErr)).Get("/books", h.List)
func RequirePermission(tokens *TokenService, permission string, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Check(r.Context(), r.Header.Get("Authorization"), permission)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claims stored by RequirePermission.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
