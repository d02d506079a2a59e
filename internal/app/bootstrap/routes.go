// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	auditlogfeature "github.com/dalemusser/hackreg/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/hackreg/internal/app/features/health"
	loginfeature "github.com/dalemusser/hackreg/internal/app/features/login"
	logoutfeature "github.com/dalemusser/hackreg/internal/app/features/logout"
	teamsfeature "github.com/dalemusser/hackreg/internal/app/features/teams"
	verificationfeature "github.com/dalemusser/hackreg/internal/app/features/verification"
	"github.com/dalemusser/hackreg/internal/app/services/otp"
	adminstore "github.com/dalemusser/hackreg/internal/app/store/admins"
	auditstore "github.com/dalemusser/hackreg/internal/app/store/audit"
	revocationstore "github.com/dalemusser/hackreg/internal/app/store/revocations"
	teamstore "github.com/dalemusser/hackreg/internal/app/store/teams"
	"github.com/dalemusser/hackreg/internal/app/store/verifycodes"
	"github.com/dalemusser/hackreg/internal/app/system/auditlog"
	"github.com/dalemusser/hackreg/internal/app/system/auth"
	"github.com/dalemusser/hackreg/internal/app/system/httpjson"
	"github.com/dalemusser/hackreg/internal/app/system/inputval"
	"github.com/dalemusser/hackreg/internal/app/system/mailer"
	"github.com/dalemusser/hackreg/internal/app/system/ratelimit"
	"github.com/dalemusser/hackreg/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every API route lives under /api:
//   - /api/teams: registration, lookup and the admin console
//   - /api/otp: code verification and resend
//   - /api/auth: admin login, logout and identity
//   - /api/audit: admin audit log
//   - /api/health: liveness and database check
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.HackregMongoDatabase

	sender, err := newSender(appCfg, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}

	events := auditstore.New(db)
	audit := auditlog.New(events, logger, auditlog.Config{
		Registration: appCfg.AuditLogRegistration,
		Auth:         appCfg.AuditLogAuth,
		Admin:        appCfg.AuditLogAdmin,
	})

	// Stores
	teams := teamstore.New(db, logger)
	codes := verifycodes.New(db, appCfg.OTPExpiry)
	admins := adminstore.New(db)
	revocations := revocationstore.New(db)

	// Admin identity is re-derived from the token and the admins collection
	// on every request.
	tokens := auth.NewTokens(appCfg.JWTSecret, appCfg.JWTExpiry)
	requireAdmin := auth.RequireAdmin(tokens, admins, revocations, logger)

	loginGuard := ratelimit.NewLoginGuard(appCfg.LoginRateLimit)
	resendGuard := ratelimit.NewResendGuard(appCfg.ResendRateLimit)
	stopSweeper()
	sweeper = workers.NewSweeper(logger, 5*time.Minute, loginGuard, resendGuard)
	sweeper.Start()

	issuer := otp.NewIssuer(codes, sender, appCfg.SiteName, logger, audit)

	r := chi.NewRouter()
	r.Use(newCORS(appCfg.CORSOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auditlog.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Message(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(api chi.Router) {
		// Health check endpoint for load balancers and orchestrators
		healthHandler := healthfeature.NewHandler(deps.HackregMongoClient, logger)
		api.Mount("/health", healthfeature.Routes(healthHandler))

		// Verification
		verifySvc := verificationfeature.NewService(teams, codes, issuer, logger, audit)
		verifyHandler := verificationfeature.NewHandler(verifySvc, resendGuard, logger)
		api.Mount("/otp", verificationfeature.Routes(verifyHandler))
		api.Post("/teams/verify-otp", verifyHandler.ServeVerify)

		// Teams
		teamsSvc := teamsfeature.NewService(teams, issuer, inputval.NewEmailPattern(appCfg.EmailDomain), logger, audit)
		teamsHandler := teamsfeature.NewHandler(teamsSvc, logger)
		api.Mount("/teams", teamsfeature.Routes(teamsHandler, requireAdmin))

		// Authentication
		logoutHandler := logoutfeature.NewHandler(revocations, audit, logger)
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, requireAdmin))

		loginHandler := loginfeature.NewHandler(admins, tokens, loginGuard, audit, logger)
		api.Mount("/auth", loginfeature.Routes(loginHandler, requireAdmin))

		// Audit log
		auditHandler := auditlogfeature.NewHandler(events, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, requireAdmin))
	})

	return r, nil
}

// newCORS lets the registration frontend call the API from its own origin,
// with the admin bearer token.
func newCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:       []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:       []string{"Content-Disposition"},
		AllowCredentials:     true,
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusOK,
	})
}

// newSender returns the SMTP sender, or a log-only sender when mail is
// disabled.
func newSender(appCfg AppConfig, logger *zap.Logger) (mailer.Sender, error) {
	if !appCfg.MailEnabled {
		logger.Warn("mail disabled: verification codes are written to the log")
		return mailer.LogSender{Log: logger}, nil
	}
	s, err := mailer.NewSMTPSender(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}
