package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rockford-panel/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.Identity{}, &models.Profile{}, &models.Proposal{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func TestCreateProposalDefaults(t *testing.T) {
	db := setupTestDB(t)
	service := NewProposalService(db)
	owner := uuid.New()

	proposal, err := service.Create(context.Background(), CreateProposalInput{
		Category: "Autos",
		Name:     "Truck",
		Price:    "25000.00",
	}, owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if proposal.Status != models.StatusPending {
		t.Errorf("expected status pending, got %q", proposal.Status)
	}
	if proposal.UserID != owner {
		t.Errorf("expected owner %s, got %s", owner, proposal.UserID)
	}
	if proposal.ImageURL != nil {
		t.Errorf("expected no image reference, got %q", *proposal.ImageURL)
	}
	if !proposal.Price.Equal(decimal.RequireFromString("25000.00")) {
		t.Errorf("expected price 25000.00, got %s", proposal.Price)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	db := setupTestDB(t)
	service := NewProposalService(db)
	owner := uuid.New()

	tests := []struct {
		name  string
		input CreateProposalInput
	}{
		{"negative price", CreateProposalInput{Category: "Autos", Name: "Truck", Price: "-5"}},
		{"unparseable price", CreateProposalInput{Category: "Autos", Name: "Truck", Price: "cheap"}},
		{"unknown category", CreateProposalInput{Category: "Yachts", Name: "Boat", Price: "10"}},
		{"empty name", CreateProposalInput{Category: "Autos", Name: "  ", Price: "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Create(context.Background(), tt.input, owner); !IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}

	// No side effects on invalid input.
	var count int64
	db.Model(&models.Proposal{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no rows written, found %d", count)
	}
}

func TestListPublicFiltersAndOrders(t *testing.T) {
	db := setupTestDB(t)
	service := NewProposalService(db)
	owner := uuid.New()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.Proposal{
		{Name: "oldest", Category: "Autos", Price: decimal.NewFromInt(1), Status: models.StatusApproved, UserID: owner, CreatedAt: base},
		{Name: "middle", Category: "Haus", Price: decimal.NewFromInt(2), Status: models.StatusCompleted, UserID: owner, CreatedAt: base.Add(time.Hour)},
		{Name: "newest", Category: "Autos", Price: decimal.NewFromInt(3), Status: models.StatusApproved, UserID: owner, CreatedAt: base.Add(2 * time.Hour)},
		{Name: "hidden", Category: "Autos", Price: decimal.NewFromInt(4), Status: models.StatusPending, UserID: owner, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("failed to seed proposal: %v", err)
		}
	}

	proposals, err := service.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic failed: %v", err)
	}

	if len(proposals) != 3 {
		t.Fatalf("expected 3 proposals, got %d", len(proposals))
	}
	for _, p := range proposals {
		if p.Status == models.StatusPending {
			t.Fatalf("pending proposal %q leaked into the public listing", p.Name)
		}
	}

	wantOrder := []string{"newest", "middle", "oldest"}
	for i, want := range wantOrder {
		if proposals[i].Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, proposals[i].Name)
		}
	}
}

func TestListMineReturnsAllStatuses(t *testing.T) {
	db := setupTestDB(t)
	service := NewProposalService(db)
	owner := uuid.New()
	other := uuid.New()

	for _, status := range []string{models.StatusPending, models.StatusApproved, models.StatusCompleted} {
		p := models.Proposal{Name: "mine-" + status, Category: "Autos", Price: decimal.NewFromInt(1), Status: status, UserID: owner}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("failed to seed proposal: %v", err)
		}
	}
	foreign := models.Proposal{Name: "theirs", Category: "Autos", Price: decimal.NewFromInt(1), Status: models.StatusApproved, UserID: other}
	if err := db.Create(&foreign).Error; err != nil {
		t.Fatalf("failed to seed proposal: %v", err)
	}

	proposals, err := service.ListMine(context.Background(), owner)
	if err != nil {
		t.Fatalf("ListMine failed: %v", err)
	}
	if len(proposals) != 3 {
		t.Fatalf("expected 3 proposals, got %d", len(proposals))
	}
	for _, p := range proposals {
		if p.UserID != owner {
			t.Errorf("foreign proposal %q in ListMine output", p.Name)
		}
	}
}

func TestAdvanceWalksTheLifecycle(t *testing.T) {
	db := setupTestDB(t)
	service := NewProposalService(db)

	p := models.Proposal{Name: "Truck", Category: "Autos", Price: decimal.NewFromInt(1), Status: models.StatusPending, UserID: uuid.New()}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to seed proposal: %v", err)
	}

	advanced, err := service.Advance(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if advanced.Status != models.StatusApproved {
		t.Errorf("expected approved, got %q", advanced.Status)
	}

	advanced, err = service.Advance(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if advanced.Status != models.StatusCompleted {
		t.Errorf("expected completed, got %q", advanced.Status)
	}

	// A completed proposal cannot advance, and the row stays untouched.
	if _, err := service.Advance(context.Background(), p.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	var current models.Proposal
	if err := db.First(&current, p.ID).Error; err != nil {
		t.Fatalf("failed to reload proposal: %v", err)
	}
	if current.Status != models.StatusCompleted {
		t.Errorf("status changed on a rejected transition: %q", current.Status)
	}
}

func TestAdvanceUnknownProposal(t *testing.T) {
	db := setupTestDB(t)
	service := NewProposalService(db)

	if _, err := service.Advance(context.Background(), 12345); !errors.Is(err, ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}
