package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecowatch/api/internal/guard"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/session"
)

// Guard applies the role-authorization decision table before a protected
// route runs. Denials and section normalizations answer 303 to the
// computed location; mismatched roles are corrected, never shown an error.
func Guard(sessions *session.Manager, required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Evaluate(sessions.Current(), required, c.Request.URL.Path)

		if !decision.Allow {
			c.Redirect(http.StatusSeeOther, decision.RedirectTo)
			c.Abort()
			return
		}
		if decision.RedirectTo != "" {
			c.Redirect(http.StatusSeeOther, decision.RedirectTo)
			c.Abort()
			return
		}

		c.Next()
	}
}
