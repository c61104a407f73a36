// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/busybee/internal/app/store/oauthstate"
	"github.com/dalemusser/busybee/internal/app/system/snapshotsync"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/jobs"
	"go.uber.org/zap"
)

// NewScheduler registers the given jobs on a scheduler. Each job runs on
// its own ticker once the scheduler is started; a failed run is logged and
// tried again at the next tick.
func NewScheduler(logger *zap.Logger, list ...*jobs.ScheduledJob) (*jobs.Scheduler, error) {
	s := jobs.NewScheduler(logger)
	for _, j := range list {
		if err := s.Add(j); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) *jobs.ScheduledJob {
	return &jobs.ScheduledJob{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Handler: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
			defer cancel()

			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// DroppedCounter reports how many sync events were never queued.
type DroppedCounter interface {
	Dropped() int64
}

// SnapshotHealJob runs heal whenever the sync worker has dropped events
// since the last successful heal. Idle intervals cost one counter read.
func SnapshotHealJob(counter DroppedCounter, heal func(ctx context.Context) (snapshotsync.ResyncReport, error), interval time.Duration, logger *zap.Logger) *jobs.ScheduledJob {
	var healedThrough int64
	return &jobs.ScheduledJob{
		Name:     "snapshot-heal",
		Interval: interval,
		Handler: func(ctx context.Context) error {
			dropped := counter.Dropped()
			if dropped <= healedThrough {
				return nil
			}
			rep, err := heal(ctx)
			if err != nil {
				return err
			}
			healedThrough = dropped
			logger.Info("snapshots healed after dropped sync events",
				zap.Int64("dropped", dropped),
				zap.Int("items", rep.Items),
				zap.Int("retitled", rep.Retitled),
				zap.Int("removed", rep.Removed),
				zap.Int("failed", rep.Failed))
			return nil
		},
	}
}
