package middleware

import (
	"net/http"

	"cargo/utils"

	"github.com/gin-gonic/gin"
)

// RequireRoles allows the request through only if the authenticated role is
// in the allow-list. Must run after AuthRequired.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ContextRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}
		role, _ := roleVal.(string)
		claim := utils.Claim{SubjectID: c.GetString(ContextUserID), Role: role}
		if !claim.Authorize(allowedRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role not permitted"})
			return
		}
		c.Next()
	}
}
