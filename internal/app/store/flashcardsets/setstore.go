// internal/app/store/flashcardsets/setstore.go
package setstore

import (
	"context"
	"time"

	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Hooks are told about committed writes that affect denormalized copies
// of a set's name. Implementations must not block.
type Hooks interface {
	OnFlashcardSetNameSaved(setID primitive.ObjectID, setName string)
	OnFlashcardSetDeleted(setID primitive.ObjectID)
}

type nopHooks struct{}

func (nopHooks) OnFlashcardSetNameSaved(primitive.ObjectID, string) {}
func (nopHooks) OnFlashcardSetDeleted(primitive.ObjectID)           {}

type Store struct {
	c     *mongo.Collection
	hooks Hooks
}

// New returns a flashcard set store. hooks may be nil.
func New(db *mongo.Database, hooks Hooks) *Store {
	if hooks == nil {
		hooks = nopHooks{}
	}
	return &Store{c: db.Collection("flashcard_sets"), hooks: hooks}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FlashcardSet, error) {
	var fs models.FlashcardSet
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&fs); err != nil {
		return models.FlashcardSet{}, err
	}
	return fs, nil
}

func (s *Store) Create(ctx context.Context, fs models.FlashcardSet) (models.FlashcardSet, error) {
	now := time.Now().UTC()
	fs.ID = primitive.NewObjectID()
	fs.SetName = normalize.Title(fs.SetName)
	if fs.Cards == nil {
		fs.Cards = []models.Flashcard{}
	}
	fs.CreatedAt = now
	fs.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, fs); err != nil {
		return models.FlashcardSet{}, err
	}
	return fs, nil
}

// ListByGroup returns the group's sets, most recently updated first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.FlashcardSet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.FlashcardSet{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the patchable fields of a set; nil means unchanged.
type Update struct {
	SetName *string
	Cards   []models.Flashcard
}

// Update applies u and returns the updated set. A changed name is reported
// to the hooks after the write.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.FlashcardSet, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if u.SetName != nil {
		n := normalize.Title(*u.SetName)
		u.SetName = &n
		set["set_name"] = n
	}
	if u.Cards != nil {
		set["cards"] = u.Cards
	}

	var before models.FlashcardSet
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		return models.FlashcardSet{}, err
	}

	after := before
	after.UpdatedAt = now
	if u.Cards != nil {
		after.Cards = u.Cards
	}
	if u.SetName != nil {
		after.SetName = *u.SetName
		if after.SetName != before.SetName {
			s.hooks.OnFlashcardSetNameSaved(id, after.SetName)
		}
	}
	return after, nil
}

// Delete removes the set. Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.hooks.OnFlashcardSetDeleted(id)
	return nil
}

// Name returns just the name of a set.
func (s *Store) Name(ctx context.Context, id primitive.ObjectID) (string, error) {
	var fs struct {
		SetName string `bson:"set_name"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"set_name": 1})).Decode(&fs)
	return fs.SetName, err
}
