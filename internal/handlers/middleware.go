package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rockford-panel/internal/session"
)

// Context keys set by SessionMiddleware.
const (
	ctxToken    = "session_token"
	ctxTracker  = "session_tracker"
	ctxSnapshot = "session_snapshot"
	ctxTier     = "session_tier"
)

// loginRedirect is where blocked clients are sent.
const loginRedirect = "/login"

// SessionMiddleware resolves the bearer token to a session tracker, waits
// for the session to settle, and blocks the request unless the access guard
// grants at least member tier. Nothing protected renders before this.
func SessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Authorization header required",
				"redirect": loginRedirect,
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Invalid authorization header format. Expected: Bearer <token>",
				"redirect": loginRedirect,
			})
			c.Abort()
			return
		}

		token := parts[1]

		tracker, err := sessions.Acquire(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Invalid or expired session",
				"redirect": loginRedirect,
			})
			c.Abort()
			return
		}

		snapshot := tracker.WaitReady(c.Request.Context())
		tier := session.Derive(snapshot)
		if tier == session.TierBlocked {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Invalid or expired session",
				"redirect": loginRedirect,
			})
			c.Abort()
			return
		}

		c.Set(ctxToken, token)
		c.Set(ctxTracker, tracker)
		c.Set(ctxSnapshot, snapshot)
		c.Set(ctxTier, tier)

		c.Next()
	}
}

// RequireAdministrator gates a route group on the administrator tier.
func RequireAdministrator() gin.HandlerFunc {
	return func(c *gin.Context) {
		tier, exists := c.Get(ctxTier)
		if !exists || tier.(session.Tier) != session.TierAdministrator {
			c.JSON(http.StatusForbidden, gin.H{"error": "Administrator access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSnapshot retrieves the session snapshot from the context
func CurrentSnapshot(c *gin.Context) (session.Snapshot, bool) {
	v, exists := c.Get(ctxSnapshot)
	if !exists {
		return session.Snapshot{}, false
	}
	snap, ok := v.(session.Snapshot)
	return snap, ok
}

// CurrentTracker retrieves the session tracker from the context
func CurrentTracker(c *gin.Context) (*session.Tracker, bool) {
	v, exists := c.Get(ctxTracker)
	if !exists {
		return nil, false
	}
	tracker, ok := v.(*session.Tracker)
	return tracker, ok
}

// CurrentToken retrieves the raw bearer token from the context
func CurrentToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxToken)
	if !exists {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}
