package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jebol-id/adminduk-api/internal/models"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
	"github.com/jebol-id/adminduk-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved session.
const ContextSessionKey = "session"

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*models.Session, error)
}

// Auth protects routes by requiring a resolvable, unexpired bearer token.
// Ability scoping is applied separately with RequireAbility.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), bearer)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// RequireAbility rejects sessions whose token does not carry the ability.
// Protected routes require "access"; the refresh route requires "refresh".
func RequireAbility(ability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil || session.Token == nil || !session.Token.Can(ability) {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFromContext returns the session stored by Auth, or nil.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
