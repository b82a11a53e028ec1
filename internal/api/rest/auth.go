package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, types.Invalid("body", "username and password are required"))
		return
	}

	session, err := s.deps.Auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, types.NewErrorResponse("invalid username or password"))
			return
		}
		s.fail(c, err)
		return
	}

	respond(c, http.StatusOK, session, nil)
}

// GET /api/auth/me
func (s *Server) currentUser(c *gin.Context) {
	user, ok := auth.SessionUser(c)
	if !ok {
		user = auth.User{Username: auth.SystemActor, DisplayName: auth.SystemActor}
	}
	respond(c, http.StatusOK, gin.H{
		"user":          user,
		"authenticated": ok,
	}, nil)
}

// POST /api/auth/logout
func (s *Server) logout(c *gin.Context) {
	token := auth.SessionToken(c)
	if token == "" {
		respond(c, http.StatusOK, gin.H{"message": "no active session"}, nil)
		return
	}

	if err := s.deps.Auth.Logout(token); err != nil {
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("invalid or expired token"))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "logged out"}, nil)
}
