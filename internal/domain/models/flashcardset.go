// internal/domain/models/flashcardset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Flashcard is a single front/back pair.
type Flashcard struct {
	Front string `bson:"front" json:"front" validate:"required,max=1000"`
	Back  string `bson:"back" json:"back" validate:"required,max=1000"`
}

// FlashcardSet is a named deck of flashcards shared within a course group.
// SetName plays the role of a note's title for favorites and views.
type FlashcardSet struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	GroupID primitive.ObjectID `bson:"group_id" json:"groupId"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"ownerId"`
	SetName string             `bson:"set_name" json:"setName"`
	Cards   []Flashcard        `bson:"cards" json:"cards"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
