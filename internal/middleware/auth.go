package middleware

import (
	"errors"
	"net/http"
	"strings"

	"educorp_backend/internal/guard"
	"educorp_backend/internal/service"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware verifies the bearer token and attaches the request session.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, util.ErrInvalidCredentials) {
				logger.Log.Error("Session verification failed", zap.Error(err))
			}
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Request = c.Request.WithContext(service.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

// CurrentSession returns the session attached by AuthMiddleware, or nil.
func CurrentSession(c *gin.Context) *service.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*service.Session)
	return s
}

// RoleMiddleware admits sessions holding one of roles. Roles that cannot be resolved answer
// 503 instead of being treated as missing.
func RoleMiddleware(auth *service.AuthService, roles ...string) gin.HandlerFunc {
	check := guard.Role(roles, "")
	return func(c *gin.Context) {
		decision := check(auth.GuardState(c.Request.Context(), CurrentSession(c)))
		switch {
		case decision.Kind == guard.Allow:
			c.Next()
			return
		case decision.Kind == guard.Pending:
			util.Error(c, http.StatusServiceUnavailable, "Roles are not available yet")
		case decision.Path == guard.PathLogin:
			util.Unauthorized(c)
		default:
			util.Forbidden(c)
		}
		c.Abort()
	}
}
