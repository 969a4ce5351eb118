package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecowatch/api/internal/service"
	"ecowatch/api/internal/session"
)

const actorKey = "current_actor"

// Auth requires a bearer token matching the current session token. The
// session's lazy expiry applies: an expired token reads as absent.
func Auth(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		current, ok := sessions.Token()
		if !ok || subtle.ConstantTimeCompare([]byte(tokenStr), []byte(current)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		sess := sessions.Current()
		c.Set(actorKey, service.Actor{
			Username: sess.Username,
			Role:     sess.Role,
		})

		c.Next()
	}
}

// CurrentActor returns the authenticated actor stored by Auth.
func CurrentActor(c *gin.Context) (service.Actor, bool) {
	val, exists := c.Get(actorKey)
	if !exists {
		return service.Actor{}, false
	}
	actor, ok := val.(service.Actor)
	return actor, ok
}
