package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envPrefix matches the server so one environment drives both binaries.
const envPrefix = "BUSYBEE"

const (
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "busy_bee"
	defaultLogLevel      = "info"
	defaultTimeout       = 10 * time.Minute
)

type ctlConfig struct {
	MongoURI      string
	MongoDatabase string
	LogLevel      string
	Timeout       time.Duration
}

func applyDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mongo_uri", defaultMongoURI)
	v.SetDefault("mongo_database", defaultMongoDatabase)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("timeout", defaultTimeout)
}

// readConfigFile loads cfgFile when given. A missing default file is fine.
func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("busybeectl")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) (ctlConfig, error) {
	cfg := ctlConfig{
		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),
		LogLevel:      v.GetString("log_level"),
		Timeout:       v.GetDuration("timeout"),
	}
	if err := wafflemongo.ValidateURI(cfg.MongoURI); err != nil {
		return ctlConfig{}, fmt.Errorf("invalid mongo_uri: %w", err)
	}
	if strings.TrimSpace(cfg.MongoDatabase) == "" {
		return ctlConfig{}, errors.New("mongo_database is required")
	}
	if cfg.Timeout <= 0 {
		return ctlConfig{}, errors.New("timeout must be positive")
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn", "warning":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func connect(ctx context.Context, cfg ctlConfig) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI).SetAppName("busybeectl"))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	disconnect := func() { _ = client.Disconnect(context.Background()) }
	return client.Database(cfg.MongoDatabase), disconnect, nil
}
