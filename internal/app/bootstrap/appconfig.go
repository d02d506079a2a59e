// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries everything specific to the registration portal.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in the pool
	MongoMinPoolSize uint64 // Minimum connections kept open

	// Email/SMTP configuration
	MailEnabled  bool   // false logs codes instead of sending them (dev)
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address
	MailFromName string // From display name

	// Registration
	SiteName    string        // Event name used in email subjects and bodies
	EmailDomain string        // Institutional email domain (e.g., vitapstudent.ac.in)
	OTPExpiry   time.Duration // How long a verification code stays live

	// Admin authentication
	JWTSecret     string        // HS256 signing secret (must be strong in production)
	JWTExpiry     time.Duration // Token lifetime
	AdminUsername string        // Seeded admin account
	AdminPassword string        // Seeded admin password (only used when the account is created)

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth         string
	AuditLogAdmin        string
	AuditLogRegistration string

	// Rate limits
	LoginRateLimit  int // Login attempts per username per 5 minutes
	ResendRateLimit int // Code resends per email per 10 minutes

	// Browser origins allowed to call the API
	CORSOrigins []string
}
