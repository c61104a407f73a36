// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseGroup is a study group inside a course. The owner is always a
// member; MemberIDs includes OwnerID.
type CourseGroup struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	CourseID     string               `bson:"course_id" json:"courseId"`
	Name         string               `bson:"name" json:"name"`
	NameCI       string               `bson:"name_ci" json:"-"`
	OwnerID      primitive.ObjectID   `bson:"owner_id" json:"ownerId"`
	MemberIDs    []primitive.ObjectID `bson:"member_ids" json:"memberIds"`
	JoinCodeHash string               `bson:"join_code_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsOwner reports whether userID owns the group.
func (g *CourseGroup) IsOwner(userID primitive.ObjectID) bool {
	return g.OwnerID == userID
}

// IsMember reports whether userID belongs to the group.
func (g *CourseGroup) IsMember(userID primitive.ObjectID) bool {
	if g.IsOwner(userID) {
		return true
	}
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Private reports whether joining requires a join code.
func (g *CourseGroup) Private() bool {
	return g.JoinCodeHash != ""
}
