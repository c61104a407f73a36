package userstore

import (
	"context"

	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddFavorite appends fav to the course's favorites. Adding an item that is
// already a favorite is a no-op and reports added=false.
func (s *Store) AddFavorite(ctx context.Context, userID primitive.ObjectID, courseID string, fav models.Favorite) (added bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id": userID,
			"registered_courses": bson.M{"$elemMatch": bson.M{
				"course_id":         courseID,
				"favorites.item_id": bson.M{"$ne": fav.ItemID},
			}},
		},
		bson.M{"$push": bson.M{"registered_courses.$.favorites": fav}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	ok, err := s.IsRegistered(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNotRegistered
	}
	return false, nil
}

// RemoveFavorite drops itemID from the course's favorites.
func (s *Store) RemoveFavorite(ctx context.Context, userID primitive.ObjectID, courseID string, itemID primitive.ObjectID) (removed bool, err error) {
	return s.pullFromCourse(ctx, userID, courseID, "favorites", itemID)
}

// ListFavorites returns the course's favorites in insertion order,
// optionally filtered by kind.
func (s *Store) ListFavorites(ctx context.Context, userID primitive.ObjectID, courseID string, kind models.ItemKind) ([]models.Favorite, error) {
	reg, err := s.course(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Favorite, 0, len(reg.Favorites))
	for _, f := range reg.Favorites {
		if kind == "" || f.Kind == kind {
			out = append(out, f)
		}
	}
	return out, nil
}

// CheckFavorites reports, for each id, whether it is a favorite in the
// course. A non-empty kind only matches favorites of that kind.
func (s *Store) CheckFavorites(ctx context.Context, userID primitive.ObjectID, courseID string, kind models.ItemKind, itemIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	reg, err := s.course(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	have := make(map[primitive.ObjectID]bool, len(reg.Favorites))
	for _, f := range reg.Favorites {
		if kind == "" || f.Kind == kind {
			have[f.ItemID] = true
		}
	}
	return check(have, itemIDs), nil
}

func check(have map[primitive.ObjectID]bool, ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	out := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		out[id] = have[id]
	}
	return out
}

// pullFromCourse removes itemID from one list of one course.
func (s *Store) pullFromCourse(ctx context.Context, userID primitive.ObjectID, courseID, list string, itemID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": courseID},
		bson.M{"$pull": bson.M{"registered_courses.$." + list: bson.M{"item_id": itemID}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotRegistered
	}
	return res.ModifiedCount > 0, nil
}
