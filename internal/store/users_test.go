package store

import (
	"context"
	"errors"
	"testing"

	"github.com/refurbhq/refurbd/internal/db"
	"github.com/refurbhq/refurbd/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice", "alice@example.com", "hash123", model.RoleStocker, nil, false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected username 'alice', got %q", user.Username)
	}
	if user.Approved {
		t.Error("expected new stocker to be unapproved")
	}
	if user.CompanyID != nil {
		t.Errorf("expected no company, got %v", *user.CompanyID)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("expected email 'alice@example.com', got %q", got.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "same@example.com", "hash", model.RoleAdmin, nil, true)
	if _, err := CreateUser(ctx, database, "b", "same@example.com", "hash", model.RoleStocker, nil, false); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for duplicate email, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "bob", "bob@example.com", "hash", model.RoleRepairTech, nil, false)

	user, err := GetUserByEmail(ctx, database, "bob@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user == nil || user.Username != "bob" {
		t.Errorf("expected bob, got %+v", user)
	}

	missing, err := GetUserByEmail(ctx, database, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestApproveUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	user, _ := CreateUser(ctx, database, "carol", "carol@example.com", "hash", model.RoleStocker, &company.ID, false)

	if err := ApproveUser(ctx, database, user.ID); err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if !got.Approved {
		t.Error("expected user to be approved")
	}
}

func TestListPendingUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme := newTestCompany(t, database, "Acme")
	other := newTestCompany(t, database, "Other")

	CreateUser(ctx, database, "pending1", "p1@example.com", "hash", model.RoleStocker, &acme.ID, false)
	CreateUser(ctx, database, "pending2", "p2@example.com", "hash", model.RoleRepairTech, &acme.ID, false)
	CreateUser(ctx, database, "approved", "ok@example.com", "hash", model.RoleStocker, &acme.ID, true)
	CreateUser(ctx, database, "elsewhere", "e@example.com", "hash", model.RoleStocker, &other.ID, false)

	pending, err := ListPendingUsers(ctx, database, acme.ID)
	if err != nil {
		t.Fatalf("ListPendingUsers: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending users, got %d", len(pending))
	}
}

func TestAssignUserCompany(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	user, _ := CreateUser(ctx, database, "admin", "admin@example.com", "hash", model.RoleAdmin, nil, true)

	if err := AssignUserCompany(ctx, database, user.ID, company.ID); err != nil {
		t.Fatalf("AssignUserCompany: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.CompanyID == nil || *got.CompanyID != company.ID {
		t.Errorf("expected company %q, got %v", company.ID, got.CompanyID)
	}
}
