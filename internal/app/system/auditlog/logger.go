// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/hackreg/internal/app/store/audit"
	"github.com/dalemusser/hackreg/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category setting.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration. Each field takes one of
// "all", "db", "log" or "off"; empty behaves like "all".
type Config struct {
	// Registration covers team registration, code delivery and verification.
	Registration string
	// Auth covers admin login and logout.
	Auth string
	// Admin covers team review actions (status changes, exports).
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when every category is
// configured for "log" or "off".
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// client is the request origin recorded on every event.
type client struct {
	ip        string
	userAgent string
}

type clientKey struct{}

// WithRequest returns a context carrying r's client IP and user agent so
// events logged further down the call chain record where they came from.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, clientKey{}, client{
		ip:        ratelimit.ClientIP(r),
		userAgent: r.UserAgent(),
	})
}

// Middleware attaches the request origin to the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequest(r.Context(), r)))
	})
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryRegistration:
		s = l.config.Registration
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryAdmin:
		s = l.config.Admin
	}
	if s == "" {
		s = All
	}
	return s
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.TeamID != nil {
		fields = append(fields, zap.String("team_id", event.TeamID.Hex()))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == Off {
		return
	}

	if c, ok := ctx.Value(clientKey{}).(client); ok {
		if event.IP == "" {
			event.IP = c.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = c.userAgent
		}
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}

	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Registration Events ---

// TeamRegistered logs a new team.
func (l *Logger) TeamRegistered(ctx context.Context, teamID primitive.ObjectID, teamName, leaderEmail string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRegistration,
		EventType: audit.EventTeamRegistered,
		TeamID:    &teamID,
		Email:     leaderEmail,
		Success:   true,
		Details:   map[string]string{"team_name": teamName},
	})
}

// CodeSent logs a verification code delivered to a member. resend is true
// for codes requested after registration.
func (l *Logger) CodeSent(ctx context.Context, teamID primitive.ObjectID, email string, resend bool) {
	eventType := audit.EventCodeSent
	if resend {
		eventType = audit.EventCodeResent
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRegistration,
		EventType: eventType,
		TeamID:    &teamID,
		Email:     email,
		Success:   true,
	})
}

// CodeSendFailed logs a verification code that could not be delivered.
func (l *Logger) CodeSendFailed(ctx context.Context, teamID primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryRegistration,
		EventType:     audit.EventCodeSendFailed,
		TeamID:        &teamID,
		Email:         email,
		Success:       false,
		FailureReason: reason,
	})
}

// MemberVerified logs a member confirming their email.
func (l *Logger) MemberVerified(ctx context.Context, teamID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRegistration,
		EventType: audit.EventMemberVerified,
		TeamID:    &teamID,
		Email:     email,
		Success:   true,
	})
}

// VerificationFailed logs a rejected code ("invalid code" or "expired").
func (l *Logger) VerificationFailed(ctx context.Context, teamID primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryRegistration,
		EventType:     audit.EventVerificationFailed,
		TeamID:        &teamID,
		Email:         email,
		Success:       false,
		FailureReason: reason,
	})
}

// --- Authentication Events ---

// LoginSuccess logs a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, adminID primitive.ObjectID, username string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   &adminID,
		Actor:     username,
		Success:   true,
	})
}

// LoginFailed logs a rejected login for the attempted username.
func (l *Logger) LoginFailed(ctx context.Context, username, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		Actor:         username,
		Success:       false,
		FailureReason: reason,
	})
}

// LoginRateLimited logs a login refused by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, username string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		Actor:         username,
		Success:       false,
		FailureReason: "rate limited",
	})
}

// Logout logs an admin logout.
func (l *Logger) Logout(ctx context.Context, adminID primitive.ObjectID, username string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorID:   &adminID,
		Actor:     username,
		Success:   true,
	})
}

// --- Admin Events ---

// TeamStatusChanged logs an admin moving a team to a new status.
func (l *Logger) TeamStatusChanged(ctx context.Context, actorID primitive.ObjectID, actor string, teamID primitive.ObjectID, from, to string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventTeamStatusChanged,
		TeamID:    &teamID,
		ActorID:   &actorID,
		Actor:     actor,
		Success:   true,
		Details: map[string]string{
			"from": from,
			"to":   to,
		},
	})
}

// TeamsExported logs a spreadsheet export.
func (l *Logger) TeamsExported(ctx context.Context, actorID primitive.ObjectID, actor string, count int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventTeamsExported,
		ActorID:   &actorID,
		Actor:     actor,
		Success:   true,
		Details:   map[string]string{"count": strconv.Itoa(count)},
	})
}
