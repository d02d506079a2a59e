// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team statuses. A team starts registered and may be qualified by an admin;
// the transition never runs backwards.
const (
	TeamStatusRegistered = "registered"
	TeamStatusQualified  = "qualified"
)

// Team sizes, counting the leader.
const (
	MinMembers = 1
	MaxMembers = 2
)

// Leader is the person who registered the team. Leaders never receive a
// verification code.
type Leader struct {
	Name  string `bson:"name" json:"name"`
	RegNo string `bson:"reg_no" json:"regNo"` // upper-cased
	Email string `bson:"email" json:"email"`  // lower-cased
}

// Member is a teammate who must confirm their email with a code.
type Member struct {
	Name     string `bson:"name" json:"name"`
	RegNo    string `bson:"reg_no" json:"regNo"`
	Email    string `bson:"email" json:"email"`
	Verified bool   `bson:"verified" json:"verified"`
}

// Team is a registered hackathon team.
type Team struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	TeamName   string             `bson:"team_name" json:"teamName"`
	TeamNameCI string             `bson:"team_name_ci" json:"-"` // ← always stored, unique
	Leader     Leader             `bson:"leader" json:"leader"`
	Members    []Member           `bson:"members" json:"members"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MemberIndex returns the position of the member with the given
// (normalized) email, or -1.
func (t Team) MemberIndex(email string) int {
	for i := range t.Members {
		if t.Members[i].Email == email {
			return i
		}
	}
	return -1
}

// AllVerified reports whether every member has confirmed their email.
func (t Team) AllVerified() bool {
	for _, m := range t.Members {
		if !m.Verified {
			return false
		}
	}
	return true
}

// Emails lists the leader's email followed by the members' in order.
func (t Team) Emails() []string {
	out := make([]string, 0, len(t.Members)+1)
	out = append(out, t.Leader.Email)
	for _, m := range t.Members {
		out = append(out, m.Email)
	}
	return out
}

// PendingEmails lists members that have not verified yet.
func (t Team) PendingEmails() []string {
	var out []string
	for _, m := range t.Members {
		if !m.Verified {
			out = append(out, m.Email)
		}
	}
	return out
}

// ValidTeamStatus reports whether s is a known team status.
func ValidTeamStatus(s string) bool {
	return s == TeamStatusRegistered || s == TeamStatusQualified
}
