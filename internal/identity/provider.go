// Package identity implements the identity provider: password credentials,
// bearer tokens, sign-out revocation, and the authentication event stream.
// The privileged operations (LookupEmailByID, DeleteIdentity) must only ever
// be called from server-side code; nothing here is safe to expose directly.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rockford-panel/internal/auth"
	"rockford-panel/internal/models"
)

var (
	// ErrInvalidCredentials is the single generic error for every credential
	// failure. Callers must not be able to tell an unknown user from a wrong
	// password.
	ErrInvalidCredentials = errors.New("identifier or password incorrect")

	// ErrEmailTaken is returned by SignUp for an already registered email.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrNoSession is returned when a token is missing, expired or revoked.
	ErrNoSession = errors.New("no active session")
)

// Provider issues and validates credentials and emits authentication events.
type Provider struct {
	db     *gorm.DB
	events *EventBus

	mu        sync.Mutex
	revokedAt map[uuid.UUID]time.Time
}

// NewProvider creates a Provider backed by the given database.
func NewProvider(db *gorm.DB) *Provider {
	return &Provider{
		db:        db,
		events:    NewEventBus(),
		revokedAt: make(map[uuid.UUID]time.Time),
	}
}

// Events returns the provider's authentication event bus.
func (p *Provider) Events() *EventBus {
	return p.events
}

// SignUp registers a new identity with the given email and password.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var existing models.Identity
	err := p.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ident := models.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := p.db.WithContext(ctx).Create(&ident).Error; err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	log.Printf("New identity registered: %s (ID: %s)", ident.Email, ident.ID)
	return &ident, nil
}

// SignInWithPassword verifies the email/password pair and returns a bearer
// token for the identity, emitting EventSignedIn. Tokens revoked by an
// earlier sign-out stay revoked; only the freshly issued token is newer than
// the revocation mark.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (string, *models.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var ident models.Identity
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&ident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to fetch identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(ident.ID, ident.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	p.events.Publish(Event{Kind: EventSignedIn, IdentityID: ident.ID})

	return token, &ident, nil
}

// SignOut revokes every token issued to the identity so far and emits
// EventSignedOut. It does not redirect or touch any consumer state; the
// event is the only signal.
func (p *Provider) SignOut(ctx context.Context, identityID uuid.UUID) error {
	p.mu.Lock()
	p.revokedAt[identityID] = time.Now()
	p.mu.Unlock()

	p.events.Publish(Event{Kind: EventSignedOut, IdentityID: identityID})
	return nil
}

// CurrentIdentity resolves a bearer token to its identity. Revoked, expired
// or malformed tokens yield ErrNoSession.
func (p *Provider) CurrentIdentity(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, ErrNoSession
	}

	id, err := uuid.Parse(claims.IdentityID)
	if err != nil {
		return nil, ErrNoSession
	}

	p.mu.Lock()
	revoked, wasRevoked := p.revokedAt[id]
	p.mu.Unlock()
	// Tokens minted at or before the sign-out are gone for good; a later
	// sign-in mints a token with a strictly larger issue time. Tokens without
	// the nanosecond claim are treated as older than any revocation.
	if wasRevoked && claims.IssuedNanos <= revoked.UnixNano() {
		return nil, ErrNoSession
	}

	var ident models.Identity
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&ident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to fetch identity: %w", err)
	}

	return &ident, nil
}

// LookupEmailByID returns the email for an identity id. Privileged: only the
// credential resolver calls this, and only behind the server trust boundary.
func (p *Provider) LookupEmailByID(ctx context.Context, identityID uuid.UUID) (string, error) {
	var ident models.Identity
	if err := p.db.WithContext(ctx).Where("id = ?", identityID).First(&ident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to fetch identity: %w", err)
	}
	return ident.Email, nil
}

// DeleteIdentity removes an identity record. Privileged: used to roll back a
// registration whose profile insert failed.
func (p *Provider) DeleteIdentity(ctx context.Context, identityID uuid.UUID) error {
	if err := p.db.WithContext(ctx).Where("id = ?", identityID).Delete(&models.Identity{}).Error; err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	log.Printf("Identity deleted: %s", identityID)
	return nil
}
