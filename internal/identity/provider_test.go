package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rockford-panel/internal/auth"
	"rockford-panel/internal/models"
)

func setupProvider(t *testing.T) *Provider {
	auth.InitJWT("test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Identity{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return NewProvider(db)
}

func TestSignUpAndSignIn(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	ident, err := p.SignUp(ctx, "Member@Rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if ident.Email != "member@rockford.example" {
		t.Errorf("expected lowercased email, got %q", ident.Email)
	}

	token, signedIn, err := p.SignInWithPassword(ctx, "member@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if signedIn.ID != ident.ID {
		t.Errorf("sign-in returned a different identity")
	}

	current, err := p.CurrentIdentity(ctx, token)
	if err != nil {
		t.Fatalf("CurrentIdentity failed: %v", err)
	}
	if current.ID != ident.ID {
		t.Errorf("token resolved to the wrong identity")
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if _, err := p.SignUp(ctx, "member@rockford.example", "hunter22"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := p.SignUp(ctx, "member@rockford.example", "other-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if _, err := p.SignUp(ctx, "member@rockford.example", "hunter22"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	_, _, err := p.SignInWithPassword(ctx, "member@rockford.example", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, _, err = p.SignInWithPassword(ctx, "nobody@rockford.example", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignOutRevokesTokensAndEmitsEvent(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	ident, err := p.SignUp(ctx, "member@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	token, _, err := p.SignInWithPassword(ctx, "member@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}

	events, unsubscribe := p.Events().Subscribe(ident.ID)
	defer unsubscribe()

	if err := p.SignOut(ctx, ident.ID); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != EventSignedOut {
			t.Errorf("expected EventSignedOut, got %v", ev.Kind)
		}
		if ev.IdentityID != ident.ID {
			t.Errorf("event for the wrong identity: %s", ev.IdentityID)
		}
	case <-time.After(time.Second):
		t.Fatal("no sign-out event received")
	}

	if _, err := p.CurrentIdentity(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for a revoked token, got %v", err)
	}

	// A fresh sign-in yields a usable token without resurrecting the old one,
	// even within the same wall-clock second as the sign-out.
	newToken, _, err := p.SignInWithPassword(ctx, "member@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if _, err := p.CurrentIdentity(ctx, newToken); err != nil {
		t.Fatalf("fresh token rejected after re-sign-in: %v", err)
	}
	if _, err := p.CurrentIdentity(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("signed-out token accepted again after a later sign-in: %v", err)
	}
}

func TestCurrentIdentityRejectsGarbage(t *testing.T) {
	p := setupProvider(t)

	if _, err := p.CurrentIdentity(context.Background(), "not-a-token"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestLookupEmailByID(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	ident, err := p.SignUp(ctx, "member@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	email, err := p.LookupEmailByID(ctx, ident.ID)
	if err != nil {
		t.Fatalf("LookupEmailByID failed: %v", err)
	}
	if email != "member@rockford.example" {
		t.Errorf("expected member@rockford.example, got %q", email)
	}
}

func TestDeleteIdentity(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	ident, err := p.SignUp(ctx, "member@rockford.example", "hunter22")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := p.DeleteIdentity(ctx, ident.ID); err != nil {
		t.Fatalf("DeleteIdentity failed: %v", err)
	}
	if _, err := p.LookupEmailByID(ctx, ident.ID); err == nil {
		t.Fatal("expected an error after deletion")
	}
}
