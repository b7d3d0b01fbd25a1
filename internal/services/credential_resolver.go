package services

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rockford-panel/internal/identity"
	"rockford-panel/internal/models"
)

// emailPattern mirrors the login form's check: anything that looks like an
// email is used as-is, everything else is treated as a username.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// PrivilegedDirectory resolves an identity id to its email. This lookup
// requires elevated rights and must stay behind the server trust boundary.
type PrivilegedDirectory interface {
	LookupEmailByID(ctx context.Context, identityID uuid.UUID) (string, error)
}

// CredentialResolver turns a login identifier (email or username) into the
// email the identity provider signs in with.
type CredentialResolver struct {
	db        *gorm.DB
	directory PrivilegedDirectory
}

// NewCredentialResolver creates a new CredentialResolver
func NewCredentialResolver(db *gorm.DB, directory PrivilegedDirectory) *CredentialResolver {
	return &CredentialResolver{db: db, directory: directory}
}

// Resolve maps identifier to a sign-in email. Every lookup miss collapses
// into identity.ErrInvalidCredentials so usernames cannot be enumerated.
func (r *CredentialResolver) Resolve(ctx context.Context, identifier string) (string, error) {
	if emailPattern.MatchString(identifier) {
		return identifier, nil
	}

	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", identifier).First(&profile).Error; err != nil {
		return "", identity.ErrInvalidCredentials
	}

	email, err := r.directory.LookupEmailByID(ctx, profile.ID)
	if err != nil || email == "" {
		return "", identity.ErrInvalidCredentials
	}

	return email, nil
}
