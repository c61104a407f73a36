// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/busybee/internal/app/store/catalog"
	"github.com/dalemusser/busybee/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/indexes"
	"github.com/dalemusser/busybee/internal/app/system/snapshotsync"
	"github.com/dalemusser/busybee/internal/app/system/tasks"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB, verifies the connection with a ping, and
// builds the (not yet started) snapshot sync worker and job scheduler.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("busybee"))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	users := userstore.New(db).WithRecentlyViewedLimit(appCfg.RecentlyViewedLimit)
	syncer := snapshotsync.New(users, logger, appCfg.SyncQueueSize)
	titles := catalog.New(db)
	heal := func(ctx context.Context) (snapshotsync.ResyncReport, error) {
		return snapshotsync.Resync(ctx, users, titles, users, logger)
	}

	sched, err := tasks.NewScheduler(logger,
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger),
		tasks.SnapshotHealJob(syncer, heal, appCfg.SyncHealInterval, logger),
	)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("schedule jobs: %w", err)
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Sync:          syncer,
		Tasks:         sched,
	}, nil
}

// EnsureSchema creates the collection indexes. It is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
