package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/jobmatch/internal/entities"
	"net/http"
	"slices"
	"strings"
)

const (
	userIDHeader = "X-User-ID"
	roleHeader   = "X-User-Role"
	identityKey  = "identity"
)

// identify reads the caller set by the gateway in front of the service. Token
// verification happens there; the bearer token is only passed on to the scoring service.
func identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			abortWithError(c, http.StatusUnauthorized, "Authentication required", "Unauthorized")
			return
		}

		role := entities.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(roleHeader))))
		if role == "" {
			role = entities.RoleCandidate
		}
		if !slices.Contains([]entities.Role{entities.RoleCandidate, entities.RoleAdmin, entities.RoleSuperAdmin}, role) {
			abortWithError(c, http.StatusUnauthorized, "Unknown role", "Unauthorized")
			return
		}

		token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		c.Set(identityKey, entities.Identity{UserID: userID, Role: role, Token: strings.TrimSpace(token)})
		c.Next()
	}
}

func requireRole(roles ...entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, identityOf(c).Role) {
			abortWithError(c, http.StatusForbidden, "Access denied", "Forbidden")
			return
		}
		c.Next()
	}
}

func identityOf(c *gin.Context) entities.Identity {
	identity, _ := c.MustGet(identityKey).(entities.Identity)
	return identity
}
