package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rockford-panel/internal/identity"
	"rockford-panel/internal/services"
	"rockford-panel/internal/session"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	resolver *services.CredentialResolver
	accounts *services.AccountService
	provider *identity.Provider
	sessions *session.Manager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(resolver *services.CredentialResolver, accounts *services.AccountService, provider *identity.Provider, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		resolver: resolver,
		accounts: accounts,
		provider: provider,
		sessions: sessions,
	}
}

// Login signs a member in with an email or username plus password.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.resolver.Resolve(c.Request.Context(), req.Identifier)
	if err != nil {
		// Same message for unknown identifier and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": identity.ErrInvalidCredentials.Error()})
		return
	}

	token, ident, err := h.provider.SignInWithPassword(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": identity.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    token,
		"identity": gin.H{"id": ident.ID, "email": ident.Email},
		"redirect": "/dashboard",
	})
}

// Register creates a new identity plus profile.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.accounts.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if services.IsValidation(err) || errors.Is(err, identity.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"data":     profile,
		"message":  "Registration successful, you can log in now",
		"redirect": loginRedirect,
	})
}

// Logout signs the current identity out. The session transition is driven
// by the resulting sign-out event, not by this handler.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tracker, ok := CurrentTracker(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := tracker.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign out"})
		return
	}

	if token, ok := CurrentToken(c); ok {
		h.sessions.Release(token)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"redirect": loginRedirect,
	})
}

// Me returns the dashboard view of the current session: identity, profile
// (real or fallback) and the derived tier.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	snapshot, ok := CurrentSnapshot(c)
	if !ok || snapshot.State != session.StateReady {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "redirect": loginRedirect})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"identity": gin.H{"id": snapshot.Identity.ID, "email": snapshot.Identity.Email},
			"profile":  snapshot.Profile,
			"tier":     session.Derive(snapshot).String(),
		},
	})
}
