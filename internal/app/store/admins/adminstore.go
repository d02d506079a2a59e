// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/hackreg/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost for stored admin passwords.
const DefaultCost = 12

var (
	ErrNotFound           = errors.New("admin not found")
	ErrDuplicateUsername  = errors.New("an admin with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Store struct {
	c    *mongo.Collection
	cost int

	// compared against when the username is unknown so a miss costs the
	// same as a wrong password
	dummy []byte
}

func New(db *mongo.Database) *Store {
	return NewWithCost(db, DefaultCost)
}

// NewWithCost is New with an explicit bcrypt cost; tests use bcrypt.MinCost.
func NewWithCost(db *mongo.Database, cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-password"), cost)
	return &Store{c: db.Collection("admins"), cost: cost, dummy: dummy}
}

// Create stores a new admin with a bcrypt hash of password.
func (s *Store) Create(ctx context.Context, username, password string) (models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.Admin{}, err
	}
	now := time.Now().UTC()
	a := models.Admin{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Admin{}, ErrDuplicateUsername
		}
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Admin, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUsername(ctx context.Context, username string) (models.Admin, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Admin, error) {
	var a models.Admin
	err := s.c.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, ErrNotFound
	}
	if err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

// Authenticate returns the admin when username and password match, and
// ErrInvalidCredentials for an unknown user or a wrong password alike.
func (s *Store) Authenticate(ctx context.Context, username, password string) (models.Admin, error) {
	a, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return models.Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return models.Admin{}, ErrInvalidCredentials
	}
	return a, nil
}

// EnsureSeed creates the admin when no admin with username exists yet.
// An existing admin is left alone, password included.
func (s *Store) EnsureSeed(ctx context.Context, username, password string) (created bool, err error) {
	_, err = s.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err = s.Create(ctx, username, password); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
