// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/hackreg/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// sweeper is started by BuildHandler and stopped by Shutdown.
var sweeper *workers.Sweeper

func stopSweeper() {
	if sweeper != nil {
		sweeper.Stop()
		sweeper = nil
	}
}

// Shutdown stops background work and tears down DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	stopSweeper()

	if deps.HackregMongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.HackregMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
