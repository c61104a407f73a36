// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for Busy Bee.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BUSYBEE_MONGO_URI, BUSYBEE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "busy_bee", Desc: "MongoDB database name"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "busybee-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public origin of this API (Google callback is built from it)"},
	{Name: "client_url", Default: "http://localhost:3000", Desc: "Web client origin; sign-in redirects there"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "sync_queue_size", Default: 1024, Desc: "Buffered snapshot sync events before new ones are dropped"},
	{Name: "recently_viewed_limit", Default: 20, Desc: "Recently viewed entries kept per course"},
	{Name: "sync_heal_interval", Default: "5m", Desc: "How often to resync snapshots after dropped sync events"},

	{Name: "rate_limit_signin", Default: 30, Desc: "Sign-in requests per client IP per minute"},
	{Name: "rate_limit_writes", Default: 120, Desc: "API writes per user per minute"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and tree reads"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for fan-out updates and cascades"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, BUSYBEE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BUSYBEE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL:   appValues.String("base_url"),
		ClientURL: appValues.String("client_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		SyncQueueSize:       appValues.Int("sync_queue_size"),
		RecentlyViewedLimit: appValues.Int("recently_viewed_limit"),
		SyncHealInterval:    appValues.Duration("sync_heal_interval", 5*time.Minute),

		SignInRateLimit: appValues.Int("rate_limit_signin"),
		WriteRateLimit:  appValues.Int("rate_limit_writes"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Busy Bee validates the MongoDB URI format before attempting to connect,
// refuses the development session key in production, and checks the URLs
// used to build OAuth redirects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}

	if len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 characters")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return errors.New("session_key must be changed in production")
	}

	for name, raw := range map[string]string{"base_url": appCfg.BaseURL, "client_url": appCfg.ClientURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if appCfg.SyncQueueSize < 1 {
		return errors.New("sync_queue_size must be positive")
	}
	if appCfg.RecentlyViewedLimit < 1 {
		return errors.New("recently_viewed_limit must be positive")
	}
	if appCfg.SyncHealInterval <= 0 {
		return errors.New("sync_heal_interval must be positive")
	}

	if appCfg.SignInRateLimit < 1 || appCfg.WriteRateLimit < 1 {
		return errors.New("rate_limit_signin and rate_limit_writes must be positive")
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return errors.New("google_client_id and google_client_secret must be set together")
	}
	if appCfg.GoogleClientID == "" {
		logger.Warn("Google OAuth not configured; sign-in is disabled")
	}

	return nil
}
