package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/redditnobility/backend/internal/domain"
	jwtinfra "github.com/redditnobility/backend/internal/infrastructure/jwt"
)

type contextKey string

const userKey contextKey = "user"

// userResolver loads the user a verified token points at.
type userResolver interface {
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
}

// Auth validates the Bearer JWT, loads the user it identifies and injects
// the record into the request context. The store lookup on every request
// means a user who is denied or loses the login flag is locked out
// immediately, even with a still-valid token in hand.
func Auth(provider *jwtinfra.Provider, users userResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if u.Status != domain.StatusApproved || !u.Permissions.Login {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

// ContextWithUser injects a user the way Auth does. Intended for handler tests.
func ContextWithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
