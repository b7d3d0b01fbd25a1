package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rockford-panel/internal/services"
)

// AdminHandler handles user administration endpoints
type AdminHandler struct {
	accounts *services.AccountService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(accounts *services.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// ListUsers returns all profiles (admin only).
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	profiles, err := h.accounts.ListProfiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profiles,
		"count":   len(profiles),
	})
}

// PromoteUser sets the administrator flag on a profile (admin only).
// POST /api/admin/users/:id/promote
func (h *AdminHandler) PromoteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	profile, err := h.accounts.Promote(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to promote user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}
