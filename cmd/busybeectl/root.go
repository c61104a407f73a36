package main

import (
	"context"
	"fmt"

	"github.com/dalemusser/busybee/internal/app/store/catalog"
	"github.com/dalemusser/busybee/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/indexes"
	"github.com/dalemusser/busybee/internal/app/system/snapshotsync"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string
	applyDefaults(v)

	root := &cobra.Command{
		Use:          "busybeectl",
		Short:        "Busy Bee maintenance commands",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return readConfigFile(v, cfgFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to configuration file")
	pf.String("mongo-uri", defaultMongoURI, "MongoDB connection URI")
	pf.String("mongo-database", defaultMongoDatabase, "MongoDB database name")
	pf.String("log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	pf.Duration("timeout", defaultTimeout, "Overall deadline for the command")

	bindFlag(v, pf, "mongo_uri", "mongo-uri")
	bindFlag(v, pf, "mongo_database", "mongo-database")
	bindFlag(v, pf, "log_level", "log-level")
	bindFlag(v, pf, "timeout", "timeout")

	root.AddCommand(
		newEnsureIndexesCmd(v),
		newResyncCmd(v),
		newPurgeStatesCmd(v),
	)
	return root
}

func bindFlag(v *viper.Viper, fs *pflag.FlagSet, key, flag string) {
	if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(err)
	}
}

// withDB loads config, connects, and runs fn under the command deadline.
func withDB(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	db, disconnect, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer disconnect()

	return fn(ctx, db, logger.With(zap.String("database", cfg.MongoDatabase)))
}

func newEnsureIndexesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create or update collection indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, v, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				if err := indexes.EnsureAll(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
				return nil
			})
		},
	}
}

func newResyncCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "resync-snapshots",
		Short: "Rewrite favorite and recently viewed titles from the notes and flashcard sets",
		Long: "Rewrites every titleSnapshot in users' favorites and recently viewed lists from\n" +
			"the current note or flashcard set, and removes entries whose item is gone.\n" +
			"Run it after the server reports dropped sync events.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, v, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				users := userstore.New(db)
				rep, err := snapshotsync.Resync(ctx, users, catalog.New(db), users, logger)
				fmt.Fprintf(cmd.OutOrStdout(), "items=%d retitled=%d removed=%d failed=%d\n",
					rep.Items, rep.Retitled, rep.Removed, rep.Failed)
				if err != nil {
					return err
				}
				if rep.Failed > 0 {
					return fmt.Errorf("%d items failed to resync", rep.Failed)
				}
				return nil
			})
		},
	}
}

func newPurgeStatesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-oauth-states",
		Short: "Delete expired OAuth sign-in states now instead of waiting for the TTL monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, v, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
				n, err := oauthstate.New(db).CleanupExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged=%d\n", n)
				return nil
			})
		},
	}
}
