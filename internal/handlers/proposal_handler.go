package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rockford-panel/internal/services"
	"rockford-panel/internal/storage"
)

// maxImageBytes caps proposal image uploads.
const maxImageBytes = 10 << 20

// ProposalHandler handles proposal endpoints
type ProposalHandler struct {
	proposals *services.ProposalService
	binder    *storage.Binder
}

// NewProposalHandler creates a new ProposalHandler
func NewProposalHandler(proposals *services.ProposalService, binder *storage.Binder) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, binder: binder}
}

// Create submits a new proposal. Multipart form with fields category, name,
// price, description and an optional image file. The image is uploaded only
// after the field validation passes, and the row is only written after the
// upload succeeds.
// POST /api/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	snapshot, ok := CurrentSnapshot(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	input := services.CreateProposalInput{
		Category:    c.PostForm("category"),
		Name:        c.PostForm("name"),
		Price:       c.PostForm("price"),
		Description: c.PostForm("description"),
	}

	if _, err := h.proposals.ValidateCreate(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err == nil {
		defer file.Close()

		data, readErr := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if readErr != nil || len(data) > maxImageBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is too large or unreadable"})
			return
		}

		url, bindErr := h.binder.Bind(
			c.Request.Context(),
			snapshot.Identity.ID,
			header.Filename,
			header.Header.Get("Content-Type"),
			data,
		)
		if bindErr != nil {
			// no proposal row without its image
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload image"})
			return
		}
		input.ImageURL = &url
	}

	proposal, err := h.proposals.Create(c.Request.Context(), input, snapshot.Identity.ID)
	if err != nil {
		if services.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create proposal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    proposal,
		"message": "Proposal submitted, an administrator will review it",
	})
}

// ListPublic returns approved and completed proposals, newest first.
// GET /api/proposals
func (h *ProposalHandler) ListPublic(c *gin.Context) {
	proposals, err := h.proposals.ListPublic(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proposals,
		"count":   len(proposals),
	})
}

// ListMine returns the caller's own proposals in every status.
// GET /api/proposals/mine
func (h *ProposalHandler) ListMine(c *gin.Context) {
	snapshot, ok := CurrentSnapshot(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	proposals, err := h.proposals.ListMine(c.Request.Context(), snapshot.Identity.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proposals,
		"count":   len(proposals),
	})
}

// ListPending returns proposals awaiting review (admin only).
// GET /api/admin/proposals/pending
func (h *ProposalHandler) ListPending(c *gin.Context) {
	proposals, err := h.proposals.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proposals,
		"count":   len(proposals),
	})
}

// Advance moves a proposal one status forward (admin only).
// POST /api/admin/proposals/:id/advance
func (h *ProposalHandler) Advance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	proposal, err := h.proposals.Advance(c.Request.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProposalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		case errors.Is(err, services.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update proposal"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proposal,
	})
}
