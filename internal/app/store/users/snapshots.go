package userstore

import (
	"context"

	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// referencesItem matches users holding itemID in any favorites or
// recently_viewed list of any course.
func referencesItem(itemID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"registered_courses.favorites.item_id": itemID},
		bson.M{"registered_courses.recently_viewed.item_id": itemID},
	}}
}

// SetTitleSnapshot rewrites title_snapshot on every favorite and recently
// viewed entry that references itemID, across all users and courses, in a
// single UpdateMany. It returns the number of user documents modified.
func (s *Store) SetTitleSnapshot(ctx context.Context, itemID primitive.ObjectID, title string) (int64, error) {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"fav.item_id": itemID},
			bson.M{"rv.item_id": itemID},
		},
	})
	res, err := s.c.UpdateMany(ctx,
		referencesItem(itemID),
		bson.M{"$set": bson.M{
			"registered_courses.$[].favorites.$[fav].title_snapshot":      title,
			"registered_courses.$[].recently_viewed.$[rv].title_snapshot": title,
		}},
		opts)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// RemoveItemReferences pulls every favorite and recently viewed entry that
// references itemID, across all users and courses. It returns the number
// of user documents modified.
func (s *Store) RemoveItemReferences(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		referencesItem(itemID),
		bson.M{"$pull": bson.M{
			"registered_courses.$[].favorites":       bson.M{"item_id": itemID},
			"registered_courses.$[].recently_viewed": bson.M{"item_id": itemID},
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ItemRef identifies an item referenced from some user's lists.
type ItemRef struct {
	ItemID primitive.ObjectID `bson:"_id"`
	Kind   models.ItemKind    `bson:"kind"`
}

// ReferencedItems returns every distinct item referenced from any
// favorites or recently_viewed list.
func (s *Store) ReferencedItems(ctx context.Context) ([]ItemRef, error) {
	pipeline := bson.A{
		bson.M{"$unwind": "$registered_courses"},
		bson.M{"$project": bson.M{"entries": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$registered_courses.favorites", bson.A{}}},
			bson.M{"$ifNull": bson.A{"$registered_courses.recently_viewed", bson.A{}}},
		}}}},
		bson.M{"$unwind": "$entries"},
		bson.M{"$group": bson.M{
			"_id":  "$entries.item_id",
			"kind": bson.M{"$first": "$entries.kind"},
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []ItemRef
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
