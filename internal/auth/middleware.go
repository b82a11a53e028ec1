package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

const (
	userKey  = "auth_user"
	tokenKey = "auth_token"

	// SystemActor is reported for changes made without a session.
	SystemActor = "system"
)

// RequireSession rejects requests without a valid bearer token. It is a
// no-op when auth is disabled.
func (s *Service) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.enabled {
			c.Next()
			return
		}

		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.NewErrorResponse("missing or malformed authorization header"))
			return
		}

		user, err := s.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// BearerToken extracts the token from "Bearer <token>".
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SessionUser returns the authenticated user, if any.
func SessionUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return User{}, false
	}
	user, ok := v.(User)
	return user, ok
}

// CurrentUser names the actor behind the request.
func CurrentUser(c *gin.Context) string {
	if user, ok := SessionUser(c); ok {
		return user.Username
	}
	return SystemActor
}

// SessionToken returns the bearer token RequireSession accepted.
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
