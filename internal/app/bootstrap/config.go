// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/hackreg/internal/app/store/verifycodes"
	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/auth"
	"github.com/dalemusser/hackreg/internal/app/system/inputval"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// DefaultAdminPassword is the seed password used in development. Production
// refuses to start with it.
const DefaultAdminPassword = "admin123"

// appConfigKeys defines the configuration keys for the portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: HACKREG_MONGO_URI, HACKREG_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "hackreg", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Email/SMTP configuration
	{Name: "mail_enabled", Default: false, Desc: "Send email over SMTP; when false codes are written to the log"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@hackreg.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Hackathon Registration", Desc: "From display name"},

	// Registration
	{Name: "site_name", Default: "Hackathon", Desc: "Event name shown in emails"},
	{Name: "email_domain", Default: inputval.DefaultEmailDomain, Desc: "Institutional email domain participants must use"},
	{Name: "otp_expiry", Default: "10m", Desc: "Verification code expiry (e.g., 10m, 1h, 90s)"},

	// Admin authentication
	{Name: "jwt_secret", Default: auth.DevSecret, Desc: "Admin token signing secret (must be strong in production)"},
	{Name: "jwt_expiry", Default: "168h", Desc: "Admin token lifetime"},
	{Name: "admin_username", Default: "admin", Desc: "Admin account created on startup when missing"},
	{Name: "admin_password", Default: DefaultAdminPassword, Desc: "Password for the seeded admin account"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_registration", Default: "all", Desc: "Registration event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Rate limits
	{Name: "login_rate_limit", Default: 5, Desc: "Login attempts allowed per username per 5 minutes"},
	{Name: "resend_rate_limit", Default: 3, Desc: "Code resends allowed per email per 10 minutes"},

	// CORS
	{Name: "cors_origins", Default: "http://localhost:5173", Desc: "Comma-separated browser origins allowed to call the API"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, HACKREG_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HACKREG", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Email/SMTP
		MailEnabled:  appValues.Bool("mail_enabled"),
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		// Registration
		SiteName:    appValues.String("site_name"),
		EmailDomain: appValues.String("email_domain"),
		OTPExpiry:   appValues.Duration("otp_expiry", verifycodes.DefaultExpiry),

		// Admin authentication
		JWTSecret:     appValues.String("jwt_secret"),
		JWTExpiry:     appValues.Duration("jwt_expiry", auth.DefaultTokenTTL),
		AdminUsername: appValues.String("admin_username"),
		AdminPassword: appValues.String("admin_password"),

		// Audit logging
		AuditLogAuth:         appValues.String("audit_log_auth"),
		AuditLogAdmin:        appValues.String("audit_log_admin"),
		AuditLogRegistration: appValues.String("audit_log_registration"),

		// Rate limits
		LoginRateLimit:  appValues.Int("login_rate_limit"),
		ResendRateLimit: appValues.Int("resend_rate_limit"),

		CORSOrigins: splitList(appValues.String("cors_origins")),
	}

	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before connecting; production refuses the
// development JWT secret and seed password.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateApp(coreCfg.Env == "prod", appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

// validateApp holds the checks that do not depend on WAFFLE types.
func validateApp(prod bool, appCfg AppConfig) error {
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}
	if appCfg.OTPExpiry < time.Minute {
		return fmt.Errorf("otp_expiry must be at least 1m, got %s", appCfg.OTPExpiry)
	}
	for name, v := range map[string]string{
		"audit_log_auth":         appCfg.AuditLogAuth,
		"audit_log_admin":        appCfg.AuditLogAdmin,
		"audit_log_registration": appCfg.AuditLogRegistration,
	} {
		switch v {
		case "", auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, v)
		}
	}

	if !prod {
		return nil
	}
	if appCfg.JWTSecret == "" || appCfg.JWTSecret == auth.DevSecret {
		return errors.New("jwt_secret must be set in production")
	}
	if len(appCfg.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters in production")
	}
	if appCfg.AdminPassword == DefaultAdminPassword {
		return errors.New("admin_password must be changed from the default in production")
	}
	if !appCfg.MailEnabled {
		return errors.New("mail_enabled must be true in production")
	}
	return nil
}
