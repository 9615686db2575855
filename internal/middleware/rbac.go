package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jebol-id/adminduk-api/internal/models"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
	"github.com/jebol-id/adminduk-api/pkg/response"
)

// RequireRoles enforces role-based access control. SUPER_ADMIN always passes,
// including when no roles are listed; an empty list therefore means
// "SUPER_ADMIN only". Other roles must match exactly, with no hierarchy.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil || session.User == nil {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		if Authorize(session.User.Role, allowed) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// Authorize is the role-gate predicate shared by the middleware.
func Authorize(role models.Role, allowed map[models.Role]struct{}) bool {
	if role == models.RoleSuperAdmin {
		return true
	}
	_, ok := allowed[role]
	return ok
}
