// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles the
// framework-level settings: ports and TLS, logging level and format, CORS,
// request body limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: busybee-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// BaseURL is this API's public origin; the Google callback hangs off it.
	BaseURL string // e.g., "https://api.busybee.app" or "http://localhost:8080"
	// ClientURL is the web client's origin; sign-in redirects land there.
	ClientURL string // e.g., "https://busybee.app" or "http://localhost:3000"

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Snapshot sync and account lists
	SyncQueueSize       int           // buffered title/delete events before new ones are dropped
	RecentlyViewedLimit int           // entries kept per course
	SyncHealInterval    time.Duration // how often to check for dropped sync events

	// Per-minute request limits
	SignInRateLimit int // sign-in starts and callbacks per client IP
	WriteRateLimit  int // API writes per user

	// Store call timeouts (zero keeps the package default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
