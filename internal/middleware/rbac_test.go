package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jebol-id/adminduk-api/internal/models"
)

func TestAuthorize(t *testing.T) {
	allow := func(roles ...models.Role) map[models.Role]struct{} {
		m := make(map[models.Role]struct{}, len(roles))
		for _, r := range roles {
			m[r] = struct{}{}
		}
		return m
	}

	tests := []struct {
		name    string
		role    models.Role
		allowed map[models.Role]struct{}
		want    bool
	}{
		{"super admin bypasses empty set", models.RoleSuperAdmin, allow(), true},
		{"super admin bypasses foreign set", models.RoleSuperAdmin, allow(models.RoleAdminKTP), true},
		{"listed role passes", models.RoleAdminKTP, allow(models.RoleAdminKTP, models.RoleSuperAdmin), true},
		{"unlisted role fails", models.RoleAdminKTP, allow(models.RoleAdminIKD), false},
		{"no hierarchy between admins", models.RoleAdminPerkawinan, allow(models.RoleAdminKTP), false},
		{"empty set locks out non-super roles", models.RoleRT, allow(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.role, tt.allowed))
		})
	}
}

func rbacTestRouter(session *models.Session, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/gated",
		func(c *gin.Context) {
			if session != nil {
				c.Set(ContextSessionKey, session)
			}
			c.Next()
		},
		RequireRoles(roles...),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		},
	)
	return r
}

func TestRequireRolesForbidsMismatchedRole(t *testing.T) {
	session := &models.Session{User: &models.User{ID: "u1", Role: models.RoleAdminKTP, IsActive: true}}
	r := rbacTestRouter(session, models.RoleAdminIKD)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"Forbidden"`)
}

func TestRequireRolesAllowsSuperAdminEverywhere(t *testing.T) {
	session := &models.Session{User: &models.User{ID: "u1", Role: models.RoleSuperAdmin, IsActive: true}}
	r := rbacTestRouter(session, models.RoleAdminPerkawinan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesWithoutSessionIsUnauthenticated(t *testing.T) {
	r := rbacTestRouter(nil, models.RoleAdminKTP)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
