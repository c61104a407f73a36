package snapshotsync

import (
	"context"

	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// References lists every item some user's lists point at.
type References interface {
	ReferencedItems(ctx context.Context) ([]userstore.ItemRef, error)
}

// Titles resolves the authoritative title of an item.
type Titles interface {
	Title(ctx context.Context, kind models.ItemKind, id primitive.ObjectID) (title string, found bool, err error)
}

// ResyncReport summarizes a Resync run.
type ResyncReport struct {
	Items    int
	Retitled int
	Removed  int
	Failed   int
}

// Resync rewrites every snapshot from the authoritative items and removes
// references to items that no longer exist. It heals drift left by dropped
// or failed events. Per-item failures are logged and counted; only a
// failure to list references aborts the run.
func Resync(ctx context.Context, refs References, titles Titles, snaps Snapshots, logger *zap.Logger) (ResyncReport, error) {
	items, err := refs.ReferencedItems(ctx)
	if err != nil {
		return ResyncReport{}, err
	}

	rep := ResyncReport{Items: len(items)}
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		title, found, err := titles.Title(ctx, it.Kind, it.ItemID)
		if err == nil {
			if found {
				_, err = snaps.SetTitleSnapshot(ctx, it.ItemID, title)
				if err == nil {
					rep.Retitled++
				}
			} else {
				_, err = snaps.RemoveItemReferences(ctx, it.ItemID)
				if err == nil {
					rep.Removed++
				}
			}
		}
		if err != nil {
			rep.Failed++
			logger.Warn("resync item failed",
				zap.String("item_id", it.ItemID.Hex()),
				zap.String("kind", string(it.Kind)),
				zap.Error(err))
		}
	}

	logger.Info("snapshot resync finished",
		zap.Int("items", rep.Items),
		zap.Int("retitled", rep.Retitled),
		zap.Int("removed", rep.Removed),
		zap.Int("failed", rep.Failed))
	return rep, nil
}
