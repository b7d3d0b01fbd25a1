package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rockford-panel/internal/models"
)

// ProposalService owns the proposal lifecycle: creation with validation,
// filtered listings, and the forward-only status transitions.
type ProposalService struct {
	db *gorm.DB
}

// NewProposalService creates a new ProposalService
func NewProposalService(db *gorm.DB) *ProposalService {
	return &ProposalService{db: db}
}

// CreateProposalInput is the raw user input for a new proposal. Price comes
// in as a string and is parsed during validation.
type CreateProposalInput struct {
	Category    string
	Name        string
	Price       string
	Description string
	ImageURL    *string
}

// ValidateCreate checks the input without touching the database or the blob
// store. Returns the parsed price on success.
func (s *ProposalService) ValidateCreate(in CreateProposalInput) (decimal.Decimal, error) {
	if !models.ValidCategory(in.Category) {
		return decimal.Zero, &ValidationError{Field: "category", Message: "unknown category"}
	}

	if strings.TrimSpace(in.Name) == "" {
		return decimal.Zero, &ValidationError{Field: "name", Message: "name must not be empty"}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "price", Message: "price must be a number"}
	}
	if price.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "price", Message: "price must not be negative"}
	}

	return price, nil
}

// Create validates the input and persists a new proposal with status pending
// owned by ownerID. Exactly one insert; nothing is written on invalid input.
func (s *ProposalService) Create(ctx context.Context, in CreateProposalInput, ownerID uuid.UUID) (*models.Proposal, error) {
	price, err := s.ValidateCreate(in)
	if err != nil {
		return nil, err
	}

	var description *string
	if d := strings.TrimSpace(in.Description); d != "" {
		description = &d
	}

	proposal := models.Proposal{
		Category:    in.Category,
		Name:        strings.TrimSpace(in.Name),
		Price:       price,
		Description: description,
		ImageURL:    in.ImageURL,
		Status:      models.StatusPending,
		UserID:      ownerID,
	}

	if err := s.db.WithContext(ctx).Create(&proposal).Error; err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	log.Printf("New proposal submitted: %q by %s (ID: %d)", proposal.Name, ownerID, proposal.ID)
	return &proposal, nil
}

// ListMine returns every proposal owned by ownerID, newest first.
func (s *ProposalService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&proposals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proposals: %w", err)
	}
	return proposals, nil
}

// ListPublic returns approved and completed proposals, newest first. Pending
// proposals are never visible here, whoever asks.
func (s *ProposalService) ListPublic(ctx context.Context) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{models.StatusApproved, models.StatusCompleted}).
		Order("created_at DESC").
		Find(&proposals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proposals: %w", err)
	}
	return proposals, nil
}

// ListPending returns proposals awaiting review, oldest first so the queue
// is worked in submission order.
func (s *ProposalService) ListPending(ctx context.Context) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proposals: %w", err)
	}
	return proposals, nil
}

// Advance moves a proposal one step forward along
// pending -> approved -> completed. A completed proposal cannot advance;
// ErrInvalidTransition is returned and the row is left untouched.
func (s *ProposalService) Advance(ctx context.Context, proposalID uint) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.WithContext(ctx).Where("id = ?", proposalID).First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to fetch proposal: %w", err)
	}

	var next string
	switch proposal.Status {
	case models.StatusPending:
		next = models.StatusApproved
	case models.StatusApproved:
		next = models.StatusCompleted
	default:
		return nil, ErrInvalidTransition
	}

	if err := s.db.WithContext(ctx).Model(&proposal).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
	}

	proposal.Status = next
	log.Printf("Proposal %d advanced to %s", proposal.ID, next)
	return &proposal, nil
}
