// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background jobs, drains the sync worker, then
// disconnects MongoDB. Queued events still need the connection.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Tasks != nil {
		if err := deps.Tasks.Stop(ctx); err != nil {
			logger.Warn("background jobs did not stop in time", zap.Error(err))
		}
	}
	if deps.Sync != nil {
		deps.Sync.Stop()
		if n := deps.Sync.Dropped(); n > 0 {
			logger.Warn("snapshot sync dropped events during this run; run busybeectl resync-snapshots",
				zap.Int64("dropped", n))
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
