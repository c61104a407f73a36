// Package catalog answers questions about study items (notes and flashcard
// sets) without caring which collection they live in.
package catalog

import (
	"context"
	"errors"

	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrItemNotFound is returned when the item does not exist, or does not
// belong to the requested course.
var ErrItemNotFound = errors.New("item not found")

// Item is the part of a note or flashcard set that favorites and views
// copy from.
type Item struct {
	ID      primitive.ObjectID
	Kind    models.ItemKind
	Title   string
	GroupID primitive.ObjectID
}

type Catalog struct {
	notes  *mongo.Collection
	sets   *mongo.Collection
	groups *mongo.Collection
}

func New(db *mongo.Database) *Catalog {
	return &Catalog{
		notes:  db.Collection("notes"),
		sets:   db.Collection("flashcard_sets"),
		groups: db.Collection("course_groups"),
	}
}

func (c *Catalog) collFor(kind models.ItemKind) (*mongo.Collection, string, bool) {
	switch kind {
	case models.KindNote:
		return c.notes, "title", true
	case models.KindFlashcardSet:
		return c.sets, "set_name", true
	}
	return nil, "", false
}

// Lookup loads the item of the given kind.
func (c *Catalog) Lookup(ctx context.Context, kind models.ItemKind, id primitive.ObjectID) (Item, error) {
	coll, titleField, ok := c.collFor(kind)
	if !ok {
		return Item{}, ErrItemNotFound
	}

	var raw bson.M
	err := coll.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{titleField: 1, "group_id": 1})).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}

	it := Item{ID: id, Kind: kind}
	it.Title, _ = raw[titleField].(string)
	it.GroupID, _ = raw["group_id"].(primitive.ObjectID)
	return it, nil
}

// LookupInCourse loads the item and checks that its group belongs to
// courseID.
func (c *Catalog) LookupInCourse(ctx context.Context, kind models.ItemKind, id primitive.ObjectID, courseID string) (Item, error) {
	it, err := c.Lookup(ctx, kind, id)
	if err != nil {
		return Item{}, err
	}
	n, err := c.groups.CountDocuments(ctx,
		bson.M{"_id": it.GroupID, "course_id": courseID},
		options.Count().SetLimit(1))
	if err != nil {
		return Item{}, err
	}
	if n == 0 {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

// Title returns the current title of the item, or found=false when the
// item no longer exists.
func (c *Catalog) Title(ctx context.Context, kind models.ItemKind, id primitive.ObjectID) (title string, found bool, err error) {
	it, err := c.Lookup(ctx, kind, id)
	if errors.Is(err, ErrItemNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return it.Title, true, nil
}
