// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// AuthSessions rotates the session on sign in and drops it on logout
type AuthSessions interface {
	Rotate(ctx context.Context, sess *session.Session) error
	Destroy(ctx context.Context, id string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	sessions    AuthSessions
	cookie      config.SessionConfig
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *user.Service, sessions AuthSessions, cookie config.SessionConfig, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		cookie:      cookie,
		logger:      logger,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), sess, &req)
	if err != nil {
		respondError(c, "Registration failed", err)
		return
	}
	if !h.rotate(c, sess) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    response,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), sess, &req)
	if err != nil {
		respondError(c, "Login failed", err)
		return
	}
	if !h.rotate(c, sess) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// rotate gives the signed in session a new id and reissues the cookie
func (h *AuthHandler) rotate(c *gin.Context, sess *session.Session) bool {
	if err := h.sessions.Rotate(c.Request.Context(), sess); err != nil {
		h.logger.WithError(err).WithField("session_id", sess.ID).Error("Failed to rotate session")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Session storage unavailable",
		})
		return false
	}
	middleware.IssueSession(c, h.cookie, sess)
	return true
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid refresh token",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"data":    response,
	})
}

// Logout drops the session. Tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sess, ok := currentSession(c); ok {
		if err := h.sessions.Destroy(c.Request.Context(), sess.ID); err != nil {
			h.logger.WithError(err).WithField("session_id", sess.ID).Warn("Failed to destroy session")
		}
	} else {
		return
	}

	c.SetCookie(h.cookie.CookieName, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
	})
}

// RestorePassword mails a temporary password
func (h *AuthHandler) RestorePassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.userService.RestorePassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, "Failed to restore password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A new password was sent to your email",
	})
}
