// internal/app/store/notecomments/commentstore.go
package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists flat comment rows. Tree shape and authorization live in
// the commenttree service.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("note_comments")}
}

// Insert stores c as given; the caller assigns the id and timestamps.
func (s *Store) Insert(ctx context.Context, c models.NoteComment) error {
	if c.Metadata.Reactions == nil {
		c.Metadata.Reactions = []models.Reaction{}
	}
	_, err := s.c.InsertOne(ctx, c)
	return err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.NoteComment, error) {
	var c models.NoteComment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.NoteComment{}, err
	}
	return c, nil
}

// ListByNote returns every comment of a note ordered by creation time, ties
// broken by id.
func (s *Store) ListByNote(ctx context.Context, noteID primitive.ObjectID) ([]models.NoteComment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"note_id": noteID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.NoteComment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChildIDs returns the ids of the direct replies to parentID.
func (s *Store) ChildIDs(ctx context.Context, parentID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"parent_comment_id": parentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// DeleteByID removes one row and reports how many were removed (0 or 1).
func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Patch holds the updatable fields; nil means unchanged.
type Patch struct {
	Content  *string
	Metadata *models.CommentMetadata
}

// Update applies p and returns the updated row.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.NoteComment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.Metadata != nil {
		md := *p.Metadata
		if md.Reactions == nil {
			md.Reactions = []models.Reaction{}
		}
		set["metadata"] = md
	}

	var c models.NoteComment
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		return models.NoteComment{}, err
	}
	return c, nil
}
