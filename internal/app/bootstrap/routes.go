// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	accountfeature "github.com/dalemusser/busybee/internal/app/features/account"
	authgooglefeature "github.com/dalemusser/busybee/internal/app/features/authgoogle"
	commentsfeature "github.com/dalemusser/busybee/internal/app/features/comments"
	flashcardsetsfeature "github.com/dalemusser/busybee/internal/app/features/flashcardsets"
	groupsfeature "github.com/dalemusser/busybee/internal/app/features/groups"
	healthfeature "github.com/dalemusser/busybee/internal/app/features/health"
	logoutfeature "github.com/dalemusser/busybee/internal/app/features/logout"
	notesfeature "github.com/dalemusser/busybee/internal/app/features/notes"
	"github.com/dalemusser/busybee/internal/app/store/catalog"
	setstore "github.com/dalemusser/busybee/internal/app/store/flashcardsets"
	groupstore "github.com/dalemusser/busybee/internal/app/store/groups"
	commentstore "github.com/dalemusser/busybee/internal/app/store/notecomments"
	notestore "github.com/dalemusser/busybee/internal/app/store/notes"
	"github.com/dalemusser/busybee/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/auth"
	"github.com/dalemusser/busybee/internal/app/system/commenttree"
	"github.com/dalemusser/busybee/internal/app/system/ratelimit"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It builds the session manager, the
// stores (note and flashcard set stores publish title changes and deletes
// to the sync worker), and mounts the feature routers:
//
//	/health
//	/auth/google, /auth/logout
//	/api/account
//	/api/groups (notes, flashcard sets, and note comments nest under a group)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	respond.SetLogger(logger)

	// LoadSessionUser fetches the user on each request so deleted accounts
	// lose access immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	users := userstore.New(db).WithRecentlyViewedLimit(appCfg.RecentlyViewedLimit)
	groups := groupstore.New(db)
	var (
		notes *notestore.Store
		sets  *setstore.Store
	)
	if deps.Sync != nil {
		notes = notestore.New(db, deps.Sync)
		sets = setstore.New(db, deps.Sync)
	} else {
		logger.Warn("snapshot sync disabled; favorites and recently viewed titles will drift")
		notes = notestore.New(db, nil)
		sets = setstore.New(db, nil)
	}
	tree := commenttree.New(notes, groups, commentstore.New(db), txn.New(deps.MongoClient, logger), logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	var syncStats healthfeature.SyncStats
	if deps.Sync != nil {
		syncStats = deps.Sync
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, syncStats, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	googleHandler := authgooglefeature.NewHandler(
		users, oauthstate.New(db), sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.ClientURL,
		logger,
	)
	signinLimit := ratelimit.Middleware(ratelimit.New(appCfg.SignInRateLimit, time.Minute), ratelimit.ClientIP)
	r.Mount("/auth/google", signinLimit(authgooglefeature.Routes(googleHandler)))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// API writes are limited per user; reads are not.
	writeLimit := ratelimit.Middleware(ratelimit.New(appCfg.WriteRateLimit, time.Minute), ratelimit.WritesByUser)

	// Account: course registrations, favorites, recently viewed
	accountHandler := accountfeature.NewHandler(users, catalog.New(db), logger)
	r.Mount("/api/account", writeLimit(accountfeature.Routes(accountHandler, sessionMgr)))

	// Groups and the items that live in them
	groupsHandler := groupsfeature.NewHandler(groups, users, logger)
	r.Mount("/api/groups", writeLimit(groupsfeature.Routes(groupsHandler, sessionMgr,
		groupsfeature.Mount{Pattern: "/notes", Handler: notesfeature.Routes(notesfeature.NewHandler(notes, logger))},
		groupsfeature.Mount{Pattern: "/flashcard-sets", Handler: flashcardsetsfeature.Routes(flashcardsetsfeature.NewHandler(sets, logger))},
		groupsfeature.Mount{Pattern: "/notes/{noteId}/comments", Handler: commentsfeature.Routes(commentsfeature.NewHandler(tree, logger))},
	)))

	return r, nil
}
