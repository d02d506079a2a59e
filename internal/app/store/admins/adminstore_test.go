package adminstore_test

import (
	"context"
	"errors"
	"testing"

	adminstore "github.com/dalemusser/hackreg/internal/app/store/admins"
	"github.com/dalemusser/hackreg/internal/app/system/indexes"
	"github.com/dalemusser/hackreg/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func setup(t *testing.T) (*adminstore.Store, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return adminstore.NewWithCost(db, bcrypt.MinCost), ctx
}

func TestStore_CreateAndGet(t *testing.T) {
	store, ctx := setup(t)

	a, err := store.Create(ctx, "admin", "s3cret")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.PasswordHash == "s3cret" || a.PasswordHash == "" {
		t.Error("password should be stored hashed")
	}

	byName, err := store.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if byName.ID != a.ID {
		t.Errorf("GetByUsername returned %v, want %v", byName.ID, a.ID)
	}

	byID, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Username != "admin" {
		t.Errorf("username = %q", byID.Username)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, adminstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	store, ctx := setup(t)

	if _, err := store.Create(ctx, "admin", "one"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "admin", "two"); !errors.Is(err, adminstore.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestStore_Authenticate(t *testing.T) {
	store, ctx := setup(t)

	created, err := store.Create(ctx, "judge", "correct horse")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	a, err := store.Authenticate(ctx, "judge", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if a.ID != created.ID {
		t.Errorf("authenticated wrong admin")
	}

	if _, err := store.Authenticate(ctx, "judge", "wrong"); !errors.Is(err, adminstore.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := store.Authenticate(ctx, "nobody", "correct horse"); !errors.Is(err, adminstore.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestStore_EnsureSeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := adminstore.NewWithCost(db, bcrypt.MinCost)

	created, err := store.EnsureSeed(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("EnsureSeed failed: %v", err)
	}
	if !created {
		t.Error("first EnsureSeed should create the admin")
	}

	created, err = store.EnsureSeed(ctx, "admin", "different")
	if err != nil {
		t.Fatalf("second EnsureSeed failed: %v", err)
	}
	if created {
		t.Error("second EnsureSeed should not create another admin")
	}

	n, err := db.Collection("admins").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}

	// The original password still works.
	if _, err := store.Authenticate(ctx, "admin", "admin123"); err != nil {
		t.Errorf("seeded password should be unchanged: %v", err)
	}
}
