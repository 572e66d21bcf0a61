package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/response"
)

const sessionKey = "session"

// AuthMiddleware verifies the bearer token and stores the caller's Session.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "access token required")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(sessionKey, auth.SessionFromClaims(claims))
		c.Next()
	}
}

// RequireRole rejects sessions whose role is not one of roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if session.Role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient role")
	}
}

// GetSession returns the Session stored by AuthMiddleware.
func GetSession(c *gin.Context) (auth.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return auth.Session{}, false
	}
	session, ok := v.(auth.Session)
	return session, ok
}

// GetUserID returns the caller's user id.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	session, ok := GetSession(c)
	if !ok {
		return uuid.Nil, false
	}
	return session.UserID, true
}

// GetUserRole returns the caller's role.
func GetUserRole(c *gin.Context) (auth.Role, bool) {
	session, ok := GetSession(c)
	if !ok {
		return "", false
	}
	return session.Role, true
}
