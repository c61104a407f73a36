// internal/app/store/notes/notestore.go
package notestore

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
// of a note's title. Implementations must not block.
type Hooks interface {
	OnNoteTitleSaved(noteID primitive.ObjectID, title string)
	OnNoteDeleted(noteID primitive.ObjectID)
}

type nopHooks struct{}

func (nopHooks) OnNoteTitleSaved(primitive.ObjectID, string) {}
func (nopHooks) OnNoteDeleted(primitive.ObjectID)            {}

type Store struct {
	c        *mongo.Collection
	comments *mongo.Collection
	hooks    Hooks
}

// New returns a note store. hooks may be nil.
func New(db *mongo.Database, hooks Hooks) *Store {
	if hooks == nil {
		hooks = nopHooks{}
	}
	return &Store{
		c:        db.Collection("notes"),
		comments: db.Collection("note_comments"),
		hooks:    hooks,
	}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Note, error) {
	var n models.Note
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Create inserts a note. Content must already be sanitized.
func (s *Store) Create(ctx context.Context, n models.Note) (models.Note, error) {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.Title = normalize.Title(n.Title)
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// ListByGroup returns the group's notes, most recently updated first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Note{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the patchable fields of a note; nil means unchanged.
type Update struct {
	Title   *string
	Content *string
}

// Update applies u and returns the updated note. A changed title is
// reported to the hooks after the write.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Note, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if u.Title != nil {
		t := normalize.Title(*u.Title)
		u.Title = &t
		set["title"] = t
	}
	if u.Content != nil {
		set["content"] = *u.Content
	}

	var before models.Note
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		return models.Note{}, err
	}

	after := before
	after.UpdatedAt = now
	if u.Content != nil {
		after.Content = *u.Content
	}
	if u.Title != nil {
		after.Title = *u.Title
		if after.Title != before.Title {
			s.hooks.OnNoteTitleSaved(id, after.Title)
		}
	}
	return after, nil
}

// Delete removes the note's comments and then the note, so a failed
// delete leaves the note in place and can be retried. Returns
// mongo.ErrNoDocuments if the note does not exist.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.comments.DeleteMany(ctx, bson.M{"note_id": id}); err != nil {
		return err
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.hooks.OnNoteDeleted(id)
	return nil
}

// Title returns just the title of a note.
func (s *Store) Title(ctx context.Context, id primitive.ObjectID) (string, error) {
	var n struct {
		Title string `bson:"title"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"title": 1})).Decode(&n)
	return n.Title, err
}
