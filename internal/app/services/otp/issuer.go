// internal/app/services/otp/issuer.go
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/mailer"
	"github.com/dalemusser/hackreg/internal/app/system/otpcode"
	"github.com/dalemusser/hackreg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Kind selects the email template for a code.
type Kind int

const (
	// Invite is the code sent when a team registers.
	Invite Kind = iota
	// Resend is a replacement code requested later.
	Resend
)

// Reasons reported in Delivery.Error.
const (
	ReasonIssue = "failed to issue code"
	ReasonSend  = "failed to send email"
)

// ErrSend is returned by Issue when the code was stored but the email
// could not be delivered.
var ErrSend = errors.New("send verification email")

// Delivery is the outcome of sending one member their code.
type Delivery struct {
	Email string `json:"email"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// CodeStore persists codes. verifycodes.Store implements it.
type CodeStore interface {
	Issue(ctx context.Context, email string, teamID primitive.ObjectID, code string) (models.VerificationCode, error)
	Expiry() time.Duration
}

// Issuer generates a code for a member, stores it (superseding any earlier
// code) and emails it.
type Issuer struct {
	Codes    CodeStore
	Mailer   mailer.Sender
	Generate otpcode.Generator
	SiteName string
	Log      *zap.Logger
	Audit    *auditlog.Logger
}

// NewIssuer wires an Issuer with the crypto/rand generator.
func NewIssuer(codes CodeStore, m mailer.Sender, siteName string, log *zap.Logger, audit *auditlog.Logger) *Issuer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Issuer{
		Codes:    codes,
		Mailer:   m,
		Generate: otpcode.New,
		SiteName: siteName,
		Log:      log,
		Audit:    audit,
	}
}

// Issue sends email a fresh code for team. The returned Delivery is always
// filled in. The error is non-nil when no code could be stored, or wraps
// ErrSend when the code is stored but the email failed; in that case the
// member can still ask for a resend, which supersedes it.
func (i *Issuer) Issue(ctx context.Context, team models.Team, email string, kind Kind) (Delivery, error) {
	d := Delivery{Email: email}

	gen := i.Generate
	if gen == nil {
		gen = otpcode.New
	}
	code, err := gen()
	if err != nil {
		d.Error = ReasonIssue
		return d, err
	}
	if _, err := i.Codes.Issue(ctx, email, team.ID, code); err != nil {
		d.Error = ReasonIssue
		return d, fmt.Errorf("store code: %w", err)
	}

	data := mailer.CodeEmailData{
		SiteName:  i.SiteName,
		TeamName:  team.TeamName,
		Code:      code,
		ExpiresIn: mailer.HumanDuration(i.Codes.Expiry()),
	}
	msg := mailer.BuildInvitationEmail(data)
	if kind == Resend {
		msg = mailer.BuildResendEmail(data)
	}
	msg.To = email

	if err := i.Mailer.Send(ctx, msg); err != nil {
		i.Log.Warn("verification email not sent",
			zap.String("team_id", team.ID.Hex()),
			zap.String("email", email),
			zap.Error(err))
		i.Audit.CodeSendFailed(ctx, team.ID, email, err.Error())
		d.Error = ReasonSend
		return d, fmt.Errorf("%w: %w", ErrSend, err)
	}

	i.Audit.CodeSent(ctx, team.ID, email, kind == Resend)
	d.Sent = true
	return d, nil
}
