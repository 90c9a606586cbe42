package middlewares

import (
	"crypto/subtle"
	"net/http"
	"tbs/src/config"
	"tbs/src/types"

	"github.com/gin-gonic/gin"
)

// RequireAdmin gates train management. Both the shared admin API key
// and the admin role on the authenticated user must be present.
func RequireAdmin(ctx *gin.Context) {
	apiKey := ctx.GetHeader("X-Admin-API-Key")
	expected := config.AdminAPIKey()
	if expected == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	if ctx.GetString("role") != string(types.ROLE_ADMIN) {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
}
