package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// SyncStats reports on the snapshot sync worker.
type SyncStats interface {
	Dropped() int64
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Sync   SyncStats // optional
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, sync SyncStats, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Sync:   sync,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string      `json:"status"`
	Database string      `json:"database"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Sync     *syncStatus `json:"sync,omitempty"`
}

type syncStatus struct {
	Dropped int64 `json:"dropped"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "sync":{"dropped":0} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
//
// A non-zero dropped count means some title changes never reached user
// documents; run busybeectl resync-snapshots.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Sync != nil {
		resp.Sync = &syncStatus{Dropped: h.Sync.Dropped()}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
