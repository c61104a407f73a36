package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data directly in the
// database, bypassing stores and their side effects.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a user with no registered courses.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                primitive.NewObjectID(),
		FullName:          fullName,
		Email:             email,
		RegisteredCourses: []models.CourseRegistration{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// RegisterCourse adds an empty course registration to the user.
func (f *Fixtures) RegisterCourse(ctx context.Context, userID primitive.ObjectID, courseID, courseName string) {
	f.t.Helper()

	reg := models.NewCourseRegistration(courseID, courseName)
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"registered_courses": reg}})
	if err != nil {
		f.t.Fatalf("failed to register course: %v", err)
	}
}

// SetCourse replaces the user's registration for reg.CourseID, registering
// it first if needed. Useful for seeding favorites and views directly.
func (f *Fixtures) SetCourse(ctx context.Context, userID primitive.ObjectID, reg models.CourseRegistration) {
	f.t.Helper()

	c := f.db.Collection("users")
	if _, err := c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"registered_courses": bson.M{"course_id": reg.CourseID}}}); err != nil {
		f.t.Fatalf("failed to clear course: %v", err)
	}
	if reg.Favorites == nil {
		reg.Favorites = []models.Favorite{}
	}
	if reg.RecentlyViewed == nil {
		reg.RecentlyViewed = []models.RecentlyViewed{}
	}
	if _, err := c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"registered_courses": reg}}); err != nil {
		f.t.Fatalf("failed to set course: %v", err)
	}
}

// GetUser reloads a user.
func (f *Fixtures) GetUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()

	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("failed to load user: %v", err)
	}
	return u
}

// CreateGroup creates a public course group owned by ownerID. Extra members
// are added alongside the owner.
func (f *Fixtures) CreateGroup(ctx context.Context, courseID, name string, ownerID primitive.ObjectID, members ...primitive.ObjectID) models.CourseGroup {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.CourseGroup{
		ID:        primitive.NewObjectID(),
		CourseID:  courseID,
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		MemberIDs: append([]primitive.ObjectID{ownerID}, members...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("course_groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateNote creates a note in the group.
func (f *Fixtures) CreateNote(ctx context.Context, groupID, ownerID primitive.ObjectID, title string) models.Note {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.Note{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		OwnerID:   ownerID,
		Title:     title,
		Content:   "<p>content</p>",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("notes").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test note: %v", err)
	}
	return n
}

// CreateFlashcardSet creates a one-card set in the group.
func (f *Fixtures) CreateFlashcardSet(ctx context.Context, groupID, ownerID primitive.ObjectID, setName string) models.FlashcardSet {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.FlashcardSet{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		OwnerID:   ownerID,
		SetName:   setName,
		Cards:     []models.Flashcard{{Front: "front", Back: "back"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("flashcard_sets").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test flashcard set: %v", err)
	}
	return s
}

// CreateComment inserts a comment row as-is. parent may be nil for a root.
func (f *Fixtures) CreateComment(ctx context.Context, note models.Note, userID primitive.ObjectID, content string, parent *primitive.ObjectID, createdAt time.Time) models.NoteComment {
	f.t.Helper()

	c := models.NoteComment{
		ID:              primitive.NewObjectID(),
		NoteID:          note.ID,
		GroupID:         note.GroupID,
		UserID:          userID,
		Content:         content,
		ParentCommentID: parent,
		Metadata:        models.CommentMetadata{Reactions: []models.Reaction{}},
		CreatedAt:       createdAt.UTC(),
		UpdatedAt:       createdAt.UTC(),
	}
	if _, err := f.db.Collection("note_comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CountComments counts the comment rows of a note.
func (f *Fixtures) CountComments(ctx context.Context, noteID primitive.ObjectID) int64 {
	f.t.Helper()

	n, err := f.db.Collection("note_comments").CountDocuments(ctx, bson.M{"note_id": noteID})
	if err != nil {
		f.t.Fatalf("failed to count comments: %v", err)
	}
	return n
}
