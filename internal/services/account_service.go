package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rockford-panel/internal/models"
)

// IdentityRegistrar is the slice of the identity provider that registration
// needs. DeleteIdentity is privileged and only used to roll back a sign-up
// whose profile insert failed.
type IdentityRegistrar interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	DeleteIdentity(ctx context.Context, identityID uuid.UUID) error
}

// AccountService handles registration, profile lookups and user
// administration.
type AccountService struct {
	db        *gorm.DB
	registrar IdentityRegistrar
}

// NewAccountService creates a new AccountService
func NewAccountService(db *gorm.DB, registrar IdentityRegistrar) *AccountService {
	return &AccountService{db: db, registrar: registrar}
}

// Register creates an identity and its profile. If the profile insert fails
// (typically a taken username) the fresh identity is deleted again so no
// orphaned account remains.
func (s *AccountService) Register(ctx context.Context, email, username, password string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 20 {
		return nil, &ValidationError{Field: "username", Message: "username must be 3-20 characters"}
	}
	if len(password) < 6 {
		return nil, &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}

	ident, err := s.registrar.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile := models.Profile{
		ID:       ident.ID,
		Username: username,
	}

	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		if rollbackErr := s.registrar.DeleteIdentity(ctx, ident.ID); rollbackErr != nil {
			log.Printf("Warning: failed to roll back identity %s: %v", ident.ID, rollbackErr)
		}
		return nil, &ValidationError{Field: "username", Message: "username is already taken"}
	}

	log.Printf("Profile created: %s (ID: %s)", profile.Username, profile.ID)
	return &profile, nil
}

// ProfileByID retrieves a profile by identity id.
func (s *AccountService) ProfileByID(ctx context.Context, identityID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", identityID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// ListProfiles returns all profiles, newest first.
func (s *AccountService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	return profiles, nil
}

// Promote sets the administrator flag on a profile.
func (s *AccountService) Promote(ctx context.Context, identityID uuid.UUID) (*models.Profile, error) {
	profile, err := s.ProfileByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(profile).Update("is_admin", true).Error; err != nil {
		return nil, fmt.Errorf("failed to promote profile: %w", err)
	}

	profile.IsAdmin = true
	log.Printf("Profile promoted to administrator: %s", profile.Username)
	return profile, nil
}
