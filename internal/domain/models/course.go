// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemKind names the kind of study item a favorite or view points at.
type ItemKind string

const (
	KindNote         ItemKind = "note"
	KindFlashcardSet ItemKind = "flashcardSet"
)

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	return k == KindNote || k == KindFlashcardSet
}

// CourseRegistration is one entry of User.RegisteredCourses.
type CourseRegistration struct {
	CourseID       string           `bson:"course_id" json:"courseId"`
	CourseName     string           `bson:"course_name" json:"courseName"`
	Favorites      []Favorite       `bson:"favorites" json:"favorites"`
	RecentlyViewed []RecentlyViewed `bson:"recently_viewed" json:"recentlyViewed"`
}

// NewCourseRegistration returns a registration with empty (non-nil) lists.
func NewCourseRegistration(courseID, courseName string) CourseRegistration {
	return CourseRegistration{
		CourseID:       courseID,
		CourseName:     courseName,
		Favorites:      []Favorite{},
		RecentlyViewed: []RecentlyViewed{},
	}
}

// Favorite is unique per (user, course, item_id).
type Favorite struct {
	ItemID        primitive.ObjectID `bson:"item_id" json:"itemId"`
	Kind          ItemKind           `bson:"kind" json:"kind"`
	TitleSnapshot string             `bson:"title_snapshot" json:"titleSnapshot"`
}

// RecentlyViewed is unique per (user, course, item_id); a repeat view
// moves the entry to the front and refreshes ViewedAt.
type RecentlyViewed struct {
	ItemID        primitive.ObjectID `bson:"item_id" json:"itemId"`
	Kind          ItemKind           `bson:"kind" json:"kind"`
	TitleSnapshot string             `bson:"title_snapshot" json:"titleSnapshot"`
	ViewedAt      time.Time          `bson:"viewed_at" json:"viewedAt"`
}
