// internal/domain/models/verification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationCode is an outstanding one-time code for a team member.
// Records are ephemeral: a TTL index on expires_at reaps them, consumption
// deletes them, and a reissue for the same email supersedes them.
type VerificationCode struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	CodeHash  string             `bson:"code_hash"` // sha256(email:code), hex
	TeamID    primitive.ObjectID `bson:"team_id"`
	Attempts  int                `bson:"attempts"` // wrong guesses against this record
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Expired reports whether the code is no longer live at now.
func (c VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Participant roles stored on claims.
const (
	ParticipantLeader = "leader"
	ParticipantMember = "member"
)

// Participant claims an email for a single team. The email is the _id, so
// the collection itself guarantees nobody joins two teams.
type Participant struct {
	Email     string             `bson:"_id"`
	TeamID    primitive.ObjectID `bson:"team_id"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
}
