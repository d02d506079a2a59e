// internal/app/store/revocations/revocationstore.go
package revocationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/hackreg/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store keeps the ids of logged-out tokens. Records expire through a TTL
// index on expires_at once the token itself would have expired.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("revoked_tokens")}
}

// Revoke records jti as revoked. Revoking the same token twice is fine.
func (s *Store) Revoke(ctx context.Context, jti string, adminID primitive.ObjectID, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, models.RevokedToken{
		ID:        jti,
		AdminID:   adminID,
		ExpiresAt: expiresAt.UTC(),
		RevokedAt: time.Now().UTC(),
	})
	if err != nil && wafflemongo.IsDup(err) {
		return nil
	}
	return err
}

// IsRevoked reports whether jti has been revoked.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": jti}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
