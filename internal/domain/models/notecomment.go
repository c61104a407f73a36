// internal/domain/models/notecomment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxCommentLength is the maximum comment length in runes.
const MaxCommentLength = 2000

// NoteComment is a flat comment row. Threads are derived at read time from
// ParentCommentID; a nil parent marks a thread root.
type NoteComment struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	NoteID          primitive.ObjectID  `bson:"note_id" json:"noteId"`
	GroupID         primitive.ObjectID  `bson:"group_id" json:"groupId"`
	UserID          primitive.ObjectID  `bson:"user_id" json:"authorId"`
	Content         string              `bson:"content" json:"content"`
	ParentCommentID *primitive.ObjectID `bson:"parent_comment_id" json:"parentCommentId"`
	ThreadID        *string             `bson:"thread_id" json:"threadId"`
	BlockID         *string             `bson:"block_id" json:"blockId"`
	Metadata        CommentMetadata     `bson:"metadata" json:"metadata"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// CommentMetadata holds the mutable, non-content state of a comment.
type CommentMetadata struct {
	Resolved  bool       `bson:"resolved" json:"resolved"`
	Reactions []Reaction `bson:"reactions" json:"reactions" validate:"max=100,dive"`
}

// Reaction is one user's emoji on a comment.
type Reaction struct {
	Emoji  string             `bson:"emoji" json:"emoji" validate:"required,max=32"`
	UserID primitive.ObjectID `bson:"user_id" json:"userId"`
}
