// internal/app/features/verification/service.go
package verification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/hackreg/internal/app/services/otp"
	teamstore "github.com/dalemusser/hackreg/internal/app/store/teams"
	"github.com/dalemusser/hackreg/internal/app/store/verifycodes"
	"github.com/dalemusser/hackreg/internal/app/system/apierr"
	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/normalize"
	"github.com/dalemusser/hackreg/internal/app/system/otpcode"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgTeamIDRequired  = "Team ID is required"
	MsgInvalidTeamID   = "Invalid team ID"
	MsgTeamNotFound    = "Team not found"
	MsgNoCodes         = "Please provide at least one OTP"
	MsgAllVerified     = "OTP verified successfully. All team members are now verified."
	MsgPartial         = "OTP verified successfully. Waiting for other members to verify."
	MsgFailed          = "OTP verification failed"
	MsgEmailRequired   = "Email is required"
	MsgNoTeamForEmail  = "Team not found for this email"
	MsgAlreadyVerified = "Member is already verified"
	MsgResent          = "New OTP sent successfully"
	MsgSendFailed      = "Failed to send OTP email"
)

// Per-email outcomes.
const (
	StatusVerified    = "verified"
	StatusInvalidCode = "invalid code"
	StatusExpired     = "expired"
)

// TeamStore is the team persistence the service needs.
type TeamStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error)
	FindByMemberEmail(ctx context.Context, email string) (models.Team, error)
	MarkVerified(ctx context.Context, teamID primitive.ObjectID, emails []string) (models.Team, error)
}

// CodeStore consumes codes. verifycodes.Store implements it.
type CodeStore interface {
	Consume(ctx context.Context, teamID primitive.ObjectID, email, code string) error
}

// CodeIssuer sends a replacement code. otp.Issuer implements it.
type CodeIssuer interface {
	Issue(ctx context.Context, team models.Team, email string, kind otp.Kind) (otp.Delivery, error)
}

// Service implements code verification and resend.
type Service struct {
	Teams  TeamStore
	Codes  CodeStore
	Issuer CodeIssuer
	Log    *zap.Logger
	Audit  *auditlog.Logger
}

func NewService(teams TeamStore, codes CodeStore, issuer CodeIssuer, log *zap.Logger, audit *auditlog.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Teams: teams, Codes: codes, Issuer: issuer, Log: log, Audit: audit}
}

// VerifyInput is the verification request body.
type VerifyInput struct {
	TeamID    string            `json:"teamId"`
	OTPValues map[string]string `json:"otpValues"`
}

// Result is the outcome for one submitted email.
type Result struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// VerifyResult is the verification response. Success is true only when
// every submitted code was accepted and the whole team is now verified;
// accepted codes are persisted either way. Pending lists members still
// waiting to verify.
type VerifyResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Team    models.Team `json:"team"`
	Results []Result    `json:"results"`
	Pending []string    `json:"pendingVerification"`
}

// pairs normalizes the submitted codes, dropping blank ones, and returns
// them in email order.
func pairs(values map[string]string) ([]string, map[string]string) {
	raw := make([]string, 0, len(values))
	for k := range values {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	codes := make(map[string]string, len(values))
	for _, k := range raw {
		email, code := normalize.Email(k), normalize.Code(values[k])
		if email == "" || code == "" {
			continue
		}
		if _, dup := codes[email]; dup {
			continue
		}
		codes[email] = code
	}

	emails := make([]string, 0, len(codes))
	for e := range codes {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	return emails, codes
}

func (s *Service) loadTeam(ctx context.Context, idHex string) (models.Team, error) {
	idHex = strings.TrimSpace(idHex)
	if idHex == "" {
		return models.Team{}, apierr.Validation(MsgTeamIDRequired)
	}
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return models.Team{}, apierr.Validation(MsgInvalidTeamID)
	}
	team, err := s.Teams.GetByID(ctx, id)
	if errors.Is(err, teamstore.ErrNotFound) {
		return models.Team{}, apierr.NotFound(MsgTeamNotFound)
	}
	if err != nil {
		return models.Team{}, apierr.Internal(fmt.Errorf("load team: %w", err), "Server error while verifying OTP")
	}
	return team, nil
}

// Verify checks each submitted (email, code) pair against the team's
// outstanding codes. Each pair succeeds or fails on its own; all accepted
// members are marked verified in a single update.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	team, err := s.loadTeam(ctx, in.TeamID)
	if err != nil {
		return VerifyResult{}, err
	}

	emails, codes := pairs(in.OTPValues)
	if len(emails) == 0 {
		return VerifyResult{}, apierr.Validation(MsgNoCodes)
	}

	results := make([]Result, 0, len(emails))
	var verified []string
	var storeErr error
	for _, email := range emails {
		status, err := s.consume(ctx, team, email, codes[email])
		if err != nil {
			storeErr = err
			break
		}
		results = append(results, Result{Email: email, Status: status})
		if status == StatusVerified {
			verified = append(verified, email)
			s.Audit.MemberVerified(ctx, team.ID, email)
		} else {
			s.Audit.VerificationFailed(ctx, team.ID, email, status)
		}
	}

	if len(verified) > 0 {
		updated, err := s.Teams.MarkVerified(ctx, team.ID, verified)
		if err != nil {
			// The codes are already consumed; these members need a resend.
			s.Log.Error("codes consumed but members not marked verified",
				zap.String("team_id", team.ID.Hex()),
				zap.Strings("emails", verified),
				zap.Error(err))
			return VerifyResult{}, apierr.Internal(fmt.Errorf("mark verified: %w", err), "Server error while verifying OTP")
		}
		team = updated
		s.Log.Info("members verified",
			zap.String("team_id", team.ID.Hex()),
			zap.Strings("emails", verified),
			zap.Bool("team_complete", team.AllVerified()))
	}
	if storeErr != nil {
		return VerifyResult{}, apierr.Internal(storeErr, "Server error while verifying OTP")
	}

	res := VerifyResult{
		Team:    team,
		Results: results,
		Pending: team.PendingEmails(),
		Message: MsgFailed,
	}
	if res.Pending == nil {
		res.Pending = []string{}
	}
	if len(verified) > 0 {
		res.Message = MsgPartial
		if team.AllVerified() {
			res.Message = MsgAllVerified
		}
	}
	res.Success = len(verified) == len(results) && team.AllVerified()
	return res, nil
}

// consume returns the outcome for one pair. Only unexpected store errors
// are returned as errors.
func (s *Service) consume(ctx context.Context, team models.Team, email, code string) (string, error) {
	if !otpcode.Valid(code) || team.MemberIndex(email) < 0 {
		return StatusInvalidCode, nil
	}
	err := s.Codes.Consume(ctx, team.ID, email, code)
	switch {
	case err == nil:
		return StatusVerified, nil
	case errors.Is(err, verifycodes.ErrExpired):
		return StatusExpired, nil
	case errors.Is(err, verifycodes.ErrInvalidCode):
		return StatusInvalidCode, nil
	default:
		return "", fmt.Errorf("consume code for %s: %w", email, err)
	}
}

// Resend replaces the member's outstanding code with a new one and emails
// it.
func (s *Service) Resend(ctx context.Context, rawEmail string) (string, error) {
	email := normalize.Email(rawEmail)
	if email == "" {
		return "", apierr.Validation(MsgEmailRequired)
	}

	team, err := s.Teams.FindByMemberEmail(ctx, email)
	if errors.Is(err, teamstore.ErrNotFound) {
		return "", apierr.NotFound(MsgNoTeamForEmail)
	}
	if err != nil {
		return "", apierr.Internal(fmt.Errorf("find team: %w", err), "Server error while resending OTP")
	}

	if i := team.MemberIndex(email); i >= 0 && team.Members[i].Verified {
		return "", apierr.Validation(MsgAlreadyVerified)
	}

	if _, err := s.Issuer.Issue(ctx, team, email, otp.Resend); err != nil {
		if errors.Is(err, otp.ErrSend) {
			return "", apierr.Internal(err, MsgSendFailed)
		}
		return "", apierr.Internal(fmt.Errorf("resend code: %w", err), "Server error while resending OTP")
	}
	return MsgResent, nil
}
