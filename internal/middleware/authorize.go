package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

// RequireAuth sends anonymous browsers to loginPath and anonymous API
// clients a 401.
func RequireAuth(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c).ID == 0 {
			rejectAnonymous(c, loginPath)
			return
		}
		c.Next()
	}
}

func RequireRoles(loginPath string, roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		if principal.ID == 0 {
			rejectAnonymous(c, loginPath)
			return
		}

		if _, ok := roleSet[principal.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}

func rejectAnonymous(c *gin.Context, loginPath string) {
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Redirect(http.StatusSeeOther, loginPath)
	c.Abort()
}
