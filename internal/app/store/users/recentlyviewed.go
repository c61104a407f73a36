package userstore

import (
	"context"
	"time"

	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordView puts rv at the front of the course's recently viewed list,
// replacing any earlier entry for the same item and evicting the oldest
// entries beyond the limit.
//
// The pull and the push are two updates; a concurrent view of the same item
// between them can leave a duplicate that the next view of it removes.
func (s *Store) RecordView(ctx context.Context, userID primitive.ObjectID, courseID string, rv models.RecentlyViewed) error {
	if rv.ViewedAt.IsZero() {
		rv.ViewedAt = time.Now().UTC()
	}
	if _, err := s.pullFromCourse(ctx, userID, courseID, "recently_viewed", rv.ItemID); err != nil {
		return err
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": courseID},
		bson.M{"$push": bson.M{"registered_courses.$.recently_viewed": bson.M{
			"$each":     bson.A{rv},
			"$position": 0,
			"$slice":    s.rvLimit,
		}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotRegistered
	}
	return nil
}

// RemoveView drops itemID from the course's recently viewed list.
func (s *Store) RemoveView(ctx context.Context, userID primitive.ObjectID, courseID string, itemID primitive.ObjectID) (removed bool, err error) {
	return s.pullFromCourse(ctx, userID, courseID, "recently_viewed", itemID)
}

// ListRecentlyViewed returns the course's views newest first, optionally
// filtered by kind.
func (s *Store) ListRecentlyViewed(ctx context.Context, userID primitive.ObjectID, courseID string, kind models.ItemKind) ([]models.RecentlyViewed, error) {
	reg, err := s.course(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]models.RecentlyViewed, 0, len(reg.RecentlyViewed))
	for _, v := range reg.RecentlyViewed {
		if kind == "" || v.Kind == kind {
			out = append(out, v)
		}
	}
	return out, nil
}

// CheckRecentlyViewed reports, for each id, whether it is in the course's
// recently viewed list. A non-empty kind only matches entries of that kind.
func (s *Store) CheckRecentlyViewed(ctx context.Context, userID primitive.ObjectID, courseID string, kind models.ItemKind, itemIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	reg, err := s.course(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	have := make(map[primitive.ObjectID]bool, len(reg.RecentlyViewed))
	for _, v := range reg.RecentlyViewed {
		if kind == "" || v.Kind == kind {
			have[v.ItemID] = true
		}
	}
	return check(have, itemIDs), nil
}
