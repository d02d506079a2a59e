// internal/app/features/teams/types.go
package teams

import (
	"strings"

	"github.com/dalemusser/hackreg/internal/app/services/otp"
	"github.com/dalemusser/hackreg/internal/app/system/normalize"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Response messages.
const (
	MsgRequired       = "Please provide all required fields"
	MsgTeamSize       = "Team must have 2-3 members"
	MsgDuplicateEmail = "Each team member must have a unique email"
	MsgLeaderTaken    = "Leader is already part of a team"
	MsgNameTaken      = "Team name is already taken"
	MsgCreated        = "Team created successfully. OTPs sent to team members for verification."
	MsgCreateFailed   = "Server error while creating team"
	MsgNotFound       = "Team not found"
	MsgInvalidStatus  = "Invalid status value"
	MsgStatusUpdated  = "Team status updated successfully"
	MsgStatusBackward = "A qualified team cannot be moved back to registered"
)

// PersonInput is a leader or member as submitted.
type PersonInput struct {
	Name  string `json:"name" validate:"required"`
	RegNo string `json:"regNo" validate:"required"`
	Email string `json:"email" validate:"required"`
}

func (p PersonInput) normalized() PersonInput {
	return PersonInput{
		Name:  normalize.Name(p.Name),
		RegNo: normalize.RegNo(p.RegNo),
		Email: normalize.Email(p.Email),
	}
}

// RegisterInput is the POST /teams body.
type RegisterInput struct {
	TeamName string        `json:"teamName" validate:"required"`
	Leader   PersonInput   `json:"leader"`
	Members  []PersonInput `json:"members" validate:"dive"`
}

func (in RegisterInput) normalized() RegisterInput {
	out := RegisterInput{
		TeamName: strings.TrimSpace(in.TeamName),
		Leader:   in.Leader.normalized(),
	}
	if in.Members != nil {
		out.Members = make([]PersonInput, len(in.Members))
		for i, m := range in.Members {
			out.Members[i] = m.normalized()
		}
	}
	return out
}

func (in RegisterInput) team() models.Team {
	t := models.Team{
		TeamName: in.TeamName,
		Leader: models.Leader{
			Name:  in.Leader.Name,
			RegNo: in.Leader.RegNo,
			Email: in.Leader.Email,
		},
		Status:  models.TeamStatusRegistered,
		Members: make([]models.Member, 0, len(in.Members)),
	}
	for _, m := range in.Members {
		t.Members = append(t.Members, models.Member{Name: m.Name, RegNo: m.RegNo, Email: m.Email})
	}
	return t
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	TeamID              string         `json:"teamId"`
	Message             string         `json:"message"`
	PendingVerification []string       `json:"pendingVerification"`
	Deliveries          []otp.Delivery `json:"deliveries"`
}

// ListParams narrows the admin team list. Status is "all", "registered",
// "qualified" or empty.
type ListParams struct {
	Status string
	Search string
}

// Actor is the admin performing a review action.
type Actor struct {
	ID       primitive.ObjectID
	Username string
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Message string      `json:"message"`
	Team    models.Team `json:"team"`
}
