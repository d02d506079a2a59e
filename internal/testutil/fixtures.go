// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/hackreg/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// EmailDomain is the institutional domain used by fixtures.
const EmailDomain = "vitapstudent.ac.in"

// Email builds an institutional address like "name.21bce0001@vitapstudent.ac.in".
func Email(name, regNo string) string {
	return strings.ToLower(name + "." + regNo + "@" + EmailDomain)
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// NewTeam builds an unsaved team with a leader and n members.
func NewTeam(name string, n int) models.Team {
	now := time.Now().UTC()
	slug := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	team := models.Team{
		ID:         primitive.NewObjectID(),
		TeamName:   name,
		TeamNameCI: text.Fold(name),
		Leader: models.Leader{
			Name:  "Leader " + name,
			RegNo: "21BCE0000",
			Email: Email(slug+"lead", "21bce0000"),
		},
		Status:    models.TeamStatusRegistered,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := 1; i <= n; i++ {
		reg := fmt.Sprintf("21bce000%d", i)
		team.Members = append(team.Members, models.Member{
			Name:  fmt.Sprintf("Member %d", i),
			RegNo: strings.ToUpper(reg),
			Email: Email(fmt.Sprintf("%smember", slug), reg),
		})
	}
	return team
}

// CreateTeam inserts a team and its participant claims directly.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, members int) models.Team {
	f.t.Helper()

	team := NewTeam(name, members)
	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	for i, email := range team.Emails() {
		role := models.ParticipantMember
		if i == 0 {
			role = models.ParticipantLeader
		}
		p := models.Participant{Email: email, TeamID: team.ID, Role: role, CreatedAt: team.CreatedAt}
		if _, err := f.db.Collection("participants").InsertOne(ctx, p); err != nil {
			f.t.Fatalf("failed to claim %s: %v", email, err)
		}
	}
	return team
}

// CreateAdmin inserts an admin with a bcrypt-hashed password.
func (f *Fixtures) CreateAdmin(ctx context.Context, username, password string) models.Admin {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	admin := models.Admin{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("admins").InsertOne(ctx, admin); err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}
	return admin
}
