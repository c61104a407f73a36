// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/app/system/paging"
	"github.com/dalemusser/busybee/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateGroupName = errors.New("a group with this name already exists in the course")
	ErrBadJoinCode        = errors.New("join code is incorrect")
	ErrOwnerCannotLeave   = errors.New("the group owner cannot leave the group")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("course_groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.CourseGroup, error) {
	var g models.CourseGroup
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.CourseGroup{}, err
	}
	return g, nil
}

// Create inserts a group owned by ownerID. A non-empty joinCode makes the
// group private; only its bcrypt hash is stored.
func (s *Store) Create(ctx context.Context, courseID, name string, ownerID primitive.ObjectID, joinCode string) (models.CourseGroup, error) {
	now := time.Now().UTC()
	g := models.CourseGroup{
		ID:        primitive.NewObjectID(),
		CourseID:  normalize.CourseID(courseID),
		Name:      normalize.Name(name),
		OwnerID:   ownerID,
		MemberIDs: []primitive.ObjectID{ownerID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.NameCI = text.Fold(g.Name)

	if code := strings.TrimSpace(joinCode); code != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return models.CourseGroup{}, err
		}
		g.JoinCodeHash = string(hash)
	}

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.CourseGroup{}, ErrDuplicateGroupName
		}
		return models.CourseGroup{}, err
	}
	return g, nil
}

// Join adds userID to the group's members. Private groups require the
// join code. Joining twice is a no-op.
func (s *Store) Join(ctx context.Context, groupID, userID primitive.ObjectID, joinCode string) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.Private() {
		if bcrypt.CompareHashAndPassword([]byte(g.JoinCodeHash), []byte(strings.TrimSpace(joinCode))) != nil {
			return ErrBadJoinCode
		}
	}
	_, err = s.c.UpdateByID(ctx, groupID, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Leave removes userID from the group's members.
func (s *Store) Leave(ctx context.Context, groupID, userID primitive.ObjectID) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.IsOwner(userID) {
		return ErrOwnerCannotLeave
	}
	_, err = s.c.UpdateByID(ctx, groupID, bson.M{
		"$pull": bson.M{"member_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ListForMember returns one page of the groups userID belongs to, ordered
// by case-folded name. An empty courseID lists every course.
func (s *Store) ListForMember(ctx context.Context, userID primitive.ObjectID, courseID string, p paging.Params) ([]models.CourseGroup, paging.Result, error) {
	filter := bson.M{"member_ids": userID}
	if courseID != "" {
		filter["course_id"] = courseID
	}

	cfg := paging.ConfigureKeyset(p)
	find := options.Find()
	cfg.ApplyToFind(find, "name_ci")
	if ks := cfg.KeysetWindow("name_ci"); ks != nil {
		maps.Copy(filter, ks)
	}

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, paging.Result{}, err
	}
	defer cur.Close(ctx)

	out := []models.CourseGroup{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Result{}, err
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(out)
	}
	return out, paging.TrimPage(&out, p), nil
}

// CourseOf returns the course a group belongs to.
func (s *Store) CourseOf(ctx context.Context, groupID primitive.ObjectID) (string, error) {
	var g struct {
		CourseID string `bson:"course_id"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": groupID},
		options.FindOne().SetProjection(bson.M{"course_id": 1})).Decode(&g)
	if err != nil {
		return "", err
	}
	return g.CourseID, nil
}
