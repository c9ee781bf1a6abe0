package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/service"
)

const principalKey = "principal"

// Principal is the logged-in agent bound to the current request.
type Principal struct {
	Agent   models.Agent
	Session models.Session
}

func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// BearerToken reads "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Session resolves the bearer token to an agent or aborts with 401.
func Session(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, agent, err := auth.Restore(c.Request.Context(), BearerToken(c))
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			abort(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired")
			return
		case errors.Is(err, service.ErrUnauthenticated):
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required")
			return
		case err != nil:
			abort(c, http.StatusInternalServerError, "DB_ERROR", "Failed to restore session")
			return
		}
		c.Set(principalKey, Principal{Agent: agent, Session: session})
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required")
			return
		}
		if !p.Agent.IsAdmin() {
			abort(c, http.StatusForbidden, "FORBIDDEN", "Admin role required")
			return
		}
		c.Next()
	}
}
