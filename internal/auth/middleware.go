package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware verifies the bearer token and stores the caller's
// identity on the request context. Guest tokens pass; routes that need a
// stored account chain RequireAccount after this.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		ident, err := s.Identify(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAccount rejects guest identities. Puzzles and snapshots are
// owner-scoped, so guests never reach those handlers.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := IdentityFromContext(r.Context())
		if ident == nil || ident.Guest {
			writeError(w, http.StatusForbidden, "a registered account is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext returns the identity stored by AuthMiddleware, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	if ident := IdentityFromContext(ctx); ident != nil {
		return ident.UserID
	}
	return ""
}
