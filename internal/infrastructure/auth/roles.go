package auth

import (
	"net/http"
	"slices"

	"github.com/avekens/threadlens/internal/models"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
)

// CheckRole authorizes an already-authenticated user against an allowed
// role set. Verification is checked before role: an unverified admin gets
// the verification error, not the permission one.
func CheckRole(user *models.User, allowedRoles []string) error {
	if !user.IsVerified {
		return pkgerrors.ErrAccountNotVerified
	}
	if slices.Contains(allowedRoles, user.Role) {
		return nil
	}
	return pkgerrors.ErrInsufficientPermission
}

// RequireRoles wraps CheckRole as middleware. Must run after an access
// guard so the user is already on the context.
func RequireRoles(writeErr ErrorWriter, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeErr(w, pkgerrors.ErrInvalidToken)
				return
			}
			if err := CheckRole(user, allowedRoles); err != nil {
				writeErr(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
