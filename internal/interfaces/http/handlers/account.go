// internal/interfaces/http/handlers/account.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/domain/user"
)

// AccountHandler handles the signed in customer's account
type AccountHandler struct {
	userService *user.Service
	uploads     *upload.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(userService *user.Service, uploads *upload.Service) *AccountHandler {
	return &AccountHandler{userService: userService, uploads: uploads}
}

// GetAccount handles GET /account
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	account, err := h.userService.Account(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account retrieved successfully",
		"data":    account,
	})
}

// GetProfile handles GET /account/profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to retrieve profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile,
	})
}

// UpdateProfile handles PUT /account/profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, "Failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"data":    profile,
	})
}

// UploadAvatar handles PUT /account/avatar (multipart field "avatar")
func (h *AccountHandler) UploadAvatar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		bindError(c, err)
		return
	}

	current, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to retrieve profile", err)
		return
	}

	stored, err := h.uploads.SaveAvatar(userID, header)
	if err != nil {
		respondError(c, "Failed to upload avatar", err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &user.UpdateProfileRequest{
		Avatar: &stored.URL,
	})
	if err != nil {
		h.uploads.Remove(stored.URL)
		respondError(c, "Failed to update profile", err)
		return
	}
	h.uploads.Remove(current.Avatar)

	c.JSON(http.StatusOK, gin.H{
		"message": "Avatar uploaded successfully",
		"data": gin.H{
			"profile": profile,
			"file":    stored,
		},
	})
}
