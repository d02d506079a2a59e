// internal/app/store/verifycodes/store.go
package verifycodes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/hackreg/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultExpiry is how long a verification code is valid.
	DefaultExpiry = 10 * time.Minute
	// MaxAttempts is how many wrong guesses a code survives before it is
	// discarded and the member has to request a new one.
	MaxAttempts = 5

	issueRetries = 3
)

var (
	// ErrInvalidCode is returned when nothing matches the submitted code.
	ErrInvalidCode = errors.New("invalid code")
	// ErrExpired is returned when the matching code is past its expiry.
	// The record has been removed.
	ErrExpired = errors.New("code expired")
)

// Store manages outstanding verification codes.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
	now    func() time.Time
}

// New creates a Store. If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("verification_codes"),
		expiry: expiry,
		now:    time.Now,
	}
}

// Expiry returns how long issued codes stay live.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Hash is the stored form of a code. Binding the email in keeps equal codes
// for different people from sharing a hash.
func Hash(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}

// Issue stores code as the only outstanding code for email, superseding
// any previous one. The unique email index turns a concurrent Issue into a
// duplicate key error, which is retried after clearing the winner's record
// so the last caller's code is the live one.
func (s *Store) Issue(ctx context.Context, email string, teamID primitive.ObjectID, code string) (models.VerificationCode, error) {
	now := s.now().UTC()
	v := models.VerificationCode{
		ID:        primitive.NewObjectID(),
		Email:     email,
		CodeHash:  Hash(email, code),
		TeamID:    teamID,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}

	var lastErr error
	for range issueRetries {
		if _, err := s.c.DeleteMany(ctx, bson.M{"email": email}); err != nil {
			return models.VerificationCode{}, fmt.Errorf("delete previous codes: %w", err)
		}
		_, err := s.c.InsertOne(ctx, v)
		if err == nil {
			return v, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.VerificationCode{}, fmt.Errorf("insert code: %w", err)
		}
		lastErr = err
	}
	return models.VerificationCode{}, fmt.Errorf("insert code: %w", lastErr)
}

// Consume atomically removes the code matching (email, code, teamID).
// It returns nil when the code was live, ErrExpired when it matched but had
// expired, and ErrInvalidCode when nothing matched. A code can be consumed
// at most once, even by concurrent callers.
func (s *Store) Consume(ctx context.Context, teamID primitive.ObjectID, email, code string) error {
	var v models.VerificationCode
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"email":     email,
		"team_id":   teamID,
		"code_hash": Hash(email, code),
	}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if ferr := s.recordFailure(ctx, teamID, email); ferr != nil {
			return fmt.Errorf("record failed attempt: %w", ferr)
		}
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if v.Expired(s.now()) {
		return ErrExpired
	}
	return nil
}

// recordFailure counts a wrong guess against the live code for email and
// discards the code once MaxAttempts is reached.
func (s *Store) recordFailure(ctx context.Context, teamID primitive.ObjectID, email string) error {
	var v models.VerificationCode
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email, "team_id": teamID},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	if v.Attempts >= MaxAttempts {
		_, err = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	}
	return err
}
