package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Authenticate verifies the bearer token and stores the claims in the
// request context. It carries no authorization policy of its own; role
// requirements are declared per route with RequireRole.
func Authenticate(issuer *TokenIssuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if authHeader == "" || !ok {
				errors.ErrMissingToken.WriteHTTP(w)
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				errors.ErrInvalidToken.WriteHTTP(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole wraps a handler with the roles allowed to invoke the
// operation. The lifecycle services below never see caller identity; this is
// the single place role policy lives.
func RequireRole(next http.HandlerFunc, roles ...domain.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			errors.ErrMissingToken.WriteHTTP(w)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}
		errors.ErrInsufficientRole.WriteHTTP(w)
	})
}

// ClaimsFromContext returns the verified claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
