package middleware

import (
	"net/http"

	"github.com/redditnobility/backend/internal/domain"
)

// Permission names one of the per-user capability flags.
type Permission string

const (
	PermAdmin      Permission = "admin"
	PermModerator  Permission = "moderator"
	PermSubmit     Permission = "submit"
	PermReviewUser Permission = "review_user"
)

// RequirePermission passes the request through when the authenticated user
// holds at least one of the listed permissions. Admins always pass. Must run
// after Auth.
func RequirePermission(allowed ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if u.Permissions.Admin {
				next.ServeHTTP(w, r)
				return
			}
			for _, p := range allowed {
				if hasPermission(u, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func hasPermission(u *domain.User, p Permission) bool {
	switch p {
	case PermAdmin:
		return u.Permissions.Admin
	case PermModerator:
		return u.Permissions.Moderator
	case PermSubmit:
		return u.Permissions.Submit
	case PermReviewUser:
		return u.Permissions.ReviewUser
	default:
		return false
	}
}
