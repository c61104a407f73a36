// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a Busy Bee account.
//
// NOTE:
//   - Favorites and recently-viewed entries are embedded per registered
//     course and carry a title snapshot so reads never join against notes
//     or flashcard sets. The snapshot sync worker keeps them current.
//   - Every CourseRegistration is stored with non-null favorites and
//     recently_viewed arrays; the fan-out updates use array filters that
//     fail on documents where those paths are null.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"full_name" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
	GoogleID string             `bson:"google_id,omitempty" json:"-"`

	RegisteredCourses []CourseRegistration `bson:"registered_courses" json:"registeredCourses"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Course returns the registration for courseID, if the user has one.
func (u *User) Course(courseID string) (*CourseRegistration, bool) {
	for i := range u.RegisteredCourses {
		if u.RegisteredCourses[i].CourseID == courseID {
			return &u.RegisteredCourses[i], true
		}
	}
	return nil, false
}
