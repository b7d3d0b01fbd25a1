package services

import (
	"context"
	"errors"
	"testing"

	"rockford-panel/internal/auth"
	"rockford-panel/internal/identity"
	"rockford-panel/internal/models"
)

func TestResolvePassesEmailsThrough(t *testing.T) {
	db := setupTestDB(t)
	provider := identity.NewProvider(db)
	resolver := NewCredentialResolver(db, provider)

	email, err := resolver.Resolve(context.Background(), "jdoe@rockford.example")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if email != "jdoe@rockford.example" {
		t.Errorf("expected passthrough, got %q", email)
	}
}

func TestResolveUsernameToEmail(t *testing.T) {
	auth.InitJWT("test-secret")
	db := setupTestDB(t)
	provider := identity.NewProvider(db)
	resolver := NewCredentialResolver(db, provider)

	ident, err := provider.SignUp(context.Background(), "jdoe@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := db.Create(&models.Profile{ID: ident.ID, Username: "jdoe"}).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	email, err := resolver.Resolve(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if email != "jdoe@rockford.example" {
		t.Errorf("expected jdoe@rockford.example, got %q", email)
	}
}

// An unknown username and a wrong password must be indistinguishable to the
// caller, or usernames could be enumerated through the login form.
func TestUnknownUserAndWrongPasswordShareOneMessage(t *testing.T) {
	auth.InitJWT("test-secret")
	db := setupTestDB(t)
	provider := identity.NewProvider(db)
	resolver := NewCredentialResolver(db, provider)

	ident, err := provider.SignUp(context.Background(), "jdoe@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := db.Create(&models.Profile{ID: ident.ID, Username: "jdoe"}).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	// Case 1: identifier matches no username at all.
	_, unknownErr := resolver.Resolve(context.Background(), "someone-else")
	if unknownErr == nil {
		t.Fatal("expected an error for an unknown username")
	}

	// Case 2: username resolves, but the password is wrong.
	email, err := resolver.Resolve(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	_, _, wrongPassErr := provider.SignInWithPassword(context.Background(), email, "not-hunter22")
	if wrongPassErr == nil {
		t.Fatal("expected an error for a wrong password")
	}

	if unknownErr.Error() != wrongPassErr.Error() {
		t.Errorf("messages differ: %q vs %q", unknownErr.Error(), wrongPassErr.Error())
	}
	if !errors.Is(unknownErr, identity.ErrInvalidCredentials) || !errors.Is(wrongPassErr, identity.ErrInvalidCredentials) {
		t.Error("both failures should be ErrInvalidCredentials")
	}
}
