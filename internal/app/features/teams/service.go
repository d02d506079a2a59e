// internal/app/features/teams/service.go
package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/hackreg/internal/app/services/otp"
	teamstore "github.com/dalemusser/hackreg/internal/app/store/teams"
	"github.com/dalemusser/hackreg/internal/app/system/apierr"
	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/inputval"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the team persistence the service needs. teamstore.Store
// implements it.
type Store interface {
	Create(ctx context.Context, team models.Team) (models.Team, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	NameTaken(ctx context.Context, name string) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Team, error)
	List(ctx context.Context, f teamstore.Filter) ([]models.Team, error)
}

// CodeIssuer sends a member their verification code. otp.Issuer
// implements it.
type CodeIssuer interface {
	Issue(ctx context.Context, team models.Team, email string, kind otp.Kind) (otp.Delivery, error)
}

// Service implements team registration and admin review.
type Service struct {
	Teams  Store
	Codes  CodeIssuer
	Emails *inputval.EmailPattern
	Log    *zap.Logger
	Audit  *auditlog.Logger
}

// NewService wires a Service. A nil pattern accepts the default domain.
func NewService(teams Store, codes CodeIssuer, emails *inputval.EmailPattern, log *zap.Logger, audit *auditlog.Logger) *Service {
	if emails == nil {
		emails = inputval.NewEmailPattern("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Teams: teams, Codes: codes, Emails: emails, Log: log, Audit: audit}
}

// formatLabel names the address format in error messages.
func (s *Service) formatLabel() string {
	if s.Emails.Domain() == inputval.DefaultEmailDomain {
		return "VIT-AP"
	}
	return "institutional"
}

// Register validates and stores a new team, then sends every member (never
// the leader) a verification code. Validation stops at the first problem
// and nothing is stored. Email failures are reported in the result's
// deliveries and never undo the registration.
func (s *Service) Register(ctx context.Context, raw RegisterInput) (RegisterResult, error) {
	in := raw.normalized()

	if err := s.validate(in); err != nil {
		return RegisterResult{}, err
	}
	if err := s.checkAvailable(ctx, in); err != nil {
		return RegisterResult{}, err
	}

	team, err := s.Teams.Create(ctx, in.team())
	if err != nil {
		return RegisterResult{}, s.createError(err)
	}
	s.Log.Info("team registered",
		zap.String("team_id", team.ID.Hex()),
		zap.String("team_name", team.TeamName),
		zap.Int("members", len(team.Members)))
	s.Audit.TeamRegistered(ctx, team.ID, team.TeamName, team.Leader.Email)

	res := RegisterResult{
		TeamID:              team.ID.Hex(),
		Message:             MsgCreated,
		PendingVerification: make([]string, 0, len(team.Members)),
		Deliveries:          make([]otp.Delivery, 0, len(team.Members)),
	}
	for _, m := range team.Members {
		res.PendingVerification = append(res.PendingVerification, m.Email)
		d, err := s.Codes.Issue(ctx, team, m.Email, otp.Invite)
		if err != nil && !errors.Is(err, otp.ErrSend) {
			s.Log.Error("issue verification code",
				zap.String("team_id", team.ID.Hex()),
				zap.String("email", m.Email),
				zap.Error(err))
		}
		res.Deliveries = append(res.Deliveries, d)
	}
	return res, nil
}

// validate runs the checks that need no database: presence, team size,
// address format and uniqueness within the request.
func (s *Service) validate(in RegisterInput) error {
	if in.Members == nil {
		return apierr.Validation(MsgRequired)
	}
	if err := inputval.Required(in); err != nil {
		return &apierr.Error{Kind: apierr.KindValidation, Message: MsgRequired, Err: err}
	}

	if n := len(in.Members); n < models.MinMembers || n > models.MaxMembers {
		return apierr.Validation(MsgTeamSize)
	}

	if !s.Emails.Match(in.Leader.Email) {
		return apierr.Validationf("Leader email must be in %s format: %s", s.formatLabel(), s.Emails.Format())
	}
	for _, m := range in.Members {
		if !s.Emails.Match(m.Email) {
			return apierr.Validationf("Member email %s must be in %s format: %s", m.Email, s.formatLabel(), s.Emails.Format())
		}
	}

	seen := map[string]bool{in.Leader.Email: true}
	for _, m := range in.Members {
		if seen[m.Email] {
			return apierr.Validation(MsgDuplicateEmail)
		}
		seen[m.Email] = true
	}
	return nil
}

// checkAvailable reports the first email or name already in use: leader,
// then members in order, then the team name.
func (s *Service) checkAvailable(ctx context.Context, in RegisterInput) error {
	taken, err := s.Teams.EmailTaken(ctx, in.Leader.Email)
	if err != nil {
		return apierr.Internal(fmt.Errorf("check leader email: %w", err), MsgCreateFailed)
	}
	if taken {
		return apierr.Conflict(MsgLeaderTaken)
	}

	for _, m := range in.Members {
		taken, err := s.Teams.EmailTaken(ctx, m.Email)
		if err != nil {
			return apierr.Internal(fmt.Errorf("check member email: %w", err), MsgCreateFailed)
		}
		if taken {
			return apierr.Conflictf("Member %s is already part of a team", m.Email)
		}
	}

	taken, err = s.Teams.NameTaken(ctx, in.TeamName)
	if err != nil {
		return apierr.Internal(fmt.Errorf("check team name: %w", err), MsgCreateFailed)
	}
	if taken {
		return apierr.Conflict(MsgNameTaken)
	}
	return nil
}

// createError maps a lost uniqueness race to the same conflict the
// pre-checks would have reported.
func (s *Service) createError(err error) error {
	var taken *teamstore.EmailTakenError
	switch {
	case errors.As(err, &taken) && taken.Role == models.ParticipantLeader:
		return apierr.Conflict(MsgLeaderTaken)
	case errors.As(err, &taken):
		return apierr.Conflictf("Member %s is already part of a team", taken.Email)
	case errors.Is(err, teamstore.ErrNameTaken):
		return apierr.Conflict(MsgNameTaken)
	default:
		return apierr.Internal(fmt.Errorf("create team: %w", err), MsgCreateFailed)
	}
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound(MsgNotFound)
	}
	return id, nil
}

// Get returns a team by its hex id.
func (s *Service) Get(ctx context.Context, idHex string) (models.Team, error) {
	id, err := parseID(idHex)
	if err != nil {
		return models.Team{}, err
	}
	team, err := s.Teams.GetByID(ctx, id)
	if errors.Is(err, teamstore.ErrNotFound) {
		return models.Team{}, apierr.NotFound(MsgNotFound)
	}
	if err != nil {
		return models.Team{}, apierr.Internal(fmt.Errorf("get team: %w", err), "Server error while fetching team")
	}
	return team, nil
}

// List returns teams for the admin console, newest first.
func (s *Service) List(ctx context.Context, p ListParams) ([]models.Team, error) {
	f := teamstore.Filter{Search: strings.TrimSpace(p.Search)}
	status := strings.ToLower(strings.TrimSpace(p.Status))
	if status != "" && status != "all" {
		if !models.ValidTeamStatus(status) {
			return nil, apierr.Validation(MsgInvalidStatus)
		}
		f.Status = status
	}
	teams, err := s.Teams.List(ctx, f)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("list teams: %w", err), "Server error while fetching teams")
	}
	return teams, nil
}

// SetStatus moves a team to registered or qualified. Qualification is
// one-way; repeating the current status is accepted.
func (s *Service) SetStatus(ctx context.Context, actor Actor, idHex, status string) (models.Team, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidTeamStatus(status) {
		return models.Team{}, apierr.Validation(MsgInvalidStatus)
	}

	before, err := s.Get(ctx, idHex)
	if err != nil {
		return models.Team{}, err
	}

	team, err := s.Teams.SetStatus(ctx, before.ID, status)
	switch {
	case errors.Is(err, teamstore.ErrNotFound):
		return models.Team{}, apierr.NotFound(MsgNotFound)
	case errors.Is(err, teamstore.ErrStatusDowngrade):
		return models.Team{}, apierr.Conflict(MsgStatusBackward)
	case err != nil:
		return models.Team{}, apierr.Internal(fmt.Errorf("set team status: %w", err), "Server error while updating team")
	}

	if before.Status != team.Status {
		s.Log.Info("team status changed",
			zap.String("team_id", team.ID.Hex()),
			zap.String("from", before.Status),
			zap.String("to", team.Status),
			zap.String("admin", actor.Username))
		s.Audit.TeamStatusChanged(ctx, actor.ID, actor.Username, team.ID, before.Status, team.Status)
	}
	return team, nil
}
