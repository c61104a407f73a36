package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "users"

// DefaultRecentlyViewedLimit caps recently_viewed per course.
const DefaultRecentlyViewedLimit = 20

var (
	// ErrNotRegistered is returned when the user has no registration for
	// the course (or the user does not exist).
	ErrNotRegistered = errors.New("user is not registered in this course")
	// ErrDuplicateEmail is returned when a different account already owns the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errNoGoogleID     = errors.New("google id is required")
)

type Store struct {
	c       *mongo.Collection
	rvLimit int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(collection), rvLimit: DefaultRecentlyViewedLimit}
}

// WithRecentlyViewedLimit returns a copy of s that keeps at most n
// recently viewed entries per course. n <= 0 keeps the default.
func (s *Store) WithRecentlyViewedLimit(n int) *Store {
	cp := *s
	if n > 0 {
		cp.rvLimit = n
	}
	return &cp
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	if u.RegisteredCourses == nil {
		u.RegisteredCourses = []models.CourseRegistration{}
	}
	return &u, nil
}

// GoogleProfile is the subset of the Google userinfo response we keep.
type GoogleProfile struct {
	GoogleID string
	Email    string
	FullName string
}

// UpsertGoogleUser finds the account for a Google sign-in, linking by email
// when the account predates Google login, and creates it on first sign-in.
func (s *Store) UpsertGoogleUser(ctx context.Context, p GoogleProfile) (*models.User, error) {
	if p.GoogleID == "" {
		return nil, errNoGoogleID
	}
	email := normalize.Email(p.Email)
	now := time.Now().UTC()

	filter := bson.M{"$or": bson.A{
		bson.M{"google_id": p.GoogleID},
		bson.M{"email": email},
	}}
	update := bson.M{
		"$set": bson.M{
			"google_id":  p.GoogleID,
			"email":      email,
			"full_name":  normalize.Name(p.FullName),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"registered_courses": bson.A{},
			"created_at":         now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// RegisterCourse adds an empty registration for courseID. Registering
// again only refreshes the course name.
func (s *Store) RegisterCourse(ctx context.Context, userID primitive.ObjectID, courseID, courseName string) error {
	courseID = normalize.CourseID(courseID)
	courseName = normalize.Name(courseName)

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": bson.M{"$ne": courseID}},
		bson.M{
			"$push": bson.M{"registered_courses": models.NewCourseRegistration(courseID, courseName)},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Already registered, or no such user.
	res, err = s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": courseID},
		bson.M{"$set": bson.M{"registered_courses.$.course_name": courseName}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UnregisterCourse removes the registration, with its favorites and views.
func (s *Store) UnregisterCourse(ctx context.Context, userID primitive.ObjectID, courseID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": courseID},
		bson.M{
			"$pull": bson.M{"registered_courses": bson.M{"course_id": courseID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotRegistered
	}
	return nil
}

// course loads one registration using a positional projection.
func (s *Store) course(ctx context.Context, userID primitive.ObjectID, courseID string) (*models.CourseRegistration, error) {
	var u models.User
	proj := options.FindOne().SetProjection(bson.M{"registered_courses.$": 1})
	err := s.c.FindOne(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": courseID},
		proj,
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	if len(u.RegisteredCourses) == 0 {
		return nil, ErrNotRegistered
	}
	return &u.RegisteredCourses[0], nil
}

// IsRegistered reports whether the user is registered in courseID.
func (s *Store) IsRegistered(ctx context.Context, userID primitive.ObjectID, courseID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"_id": userID, "registered_courses.course_id": courseID},
		options.Count().SetLimit(1))
	return n > 0, err
}
