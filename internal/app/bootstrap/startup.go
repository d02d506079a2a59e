// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	adminstore "github.com/dalemusser/hackreg/internal/app/store/admins"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It seeds
// the admin account.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return ensureAdmin(ctx, adminstore.New(deps.HackregMongoDatabase), appCfg.AdminUsername, appCfg.AdminPassword, logger)
}

// AdminSeeder creates the admin account when it is missing.
type AdminSeeder interface {
	EnsureSeed(ctx context.Context, username, password string) (bool, error)
}

// ensureAdmin seeds the configured admin. An existing account keeps its
// password; a blank username or password skips seeding.
func ensureAdmin(ctx context.Context, admins AdminSeeder, username, password string, logger *zap.Logger) error {
	if username == "" || password == "" {
		logger.Warn("admin seed skipped: admin_username or admin_password is empty")
		return nil
	}
	created, err := admins.EnsureSeed(ctx, username, password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info("admin account created", zap.String("username", username))
	} else {
		logger.Debug("admin account already exists", zap.String("username", username))
	}
	return nil
}
