// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/busybee/internal/app/system/snapshotsync"
	"github.com/dalemusser/waffle/pantry/jobs"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Sync is created with the connection so every later hook shares it.
	// Startup starts it; Shutdown drains it before Mongo disconnects.
	Sync *snapshotsync.Service
	// Tasks runs periodic maintenance (OAuth state cleanup, snapshot heal).
	Tasks *jobs.Scheduler
}
