// internal/domain/models/admin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is an operator account for the review console.
type Admin struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// RevokedToken records a logged-out bearer token until it would have
// expired anyway.
type RevokedToken struct {
	ID        string             `bson:"_id"` // token id (jti)
	AdminID   primitive.ObjectID `bson:"admin_id"`
	ExpiresAt time.Time          `bson:"expires_at"`
	RevokedAt time.Time          `bson:"revoked_at"`
}
