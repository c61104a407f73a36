// Package commenttree stores note comments as flat rows and serves them as
// reply trees. It owns comment validation, authorization and the cascading
// delete of a comment's replies.
package commenttree

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	commentstore "github.com/dalemusser/busybee/internal/app/store/notecomments"
	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/app/system/htmlsanitize"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Notes looks up the note a comment hangs off.
type Notes interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Note, error)
}

// Groups looks up the group that scopes a delete.
type Groups interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.CourseGroup, error)
}

// Comments persists flat rows. Implemented by commentstore.Store.
type Comments interface {
	Insert(ctx context.Context, c models.NoteComment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.NoteComment, error)
	ListByNote(ctx context.Context, noteID primitive.ObjectID) ([]models.NoteComment, error)
	ChildIDs(ctx context.Context, parentID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, p commentstore.Patch) (models.NoteComment, error)
}

// Transactor runs fn atomically when the deployment allows it.
// Implemented by txn.Runner.
type Transactor interface {
	Run(ctx context.Context, op string, fn func(ctx context.Context) error) error
}

type directRunner struct{}

func (directRunner) Run(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	notes    Notes
	groups   Groups
	comments Comments
	tx       Transactor
	log      *zap.Logger
}

// New builds the service. tx may be nil, in which case cascades run
// without a transaction.
func New(notes Notes, groups Groups, comments Comments, tx Transactor, logger *zap.Logger) *Service {
	if tx == nil {
		tx = directRunner{}
	}
	return &Service{notes: notes, groups: groups, comments: comments, tx: tx, log: logger}
}

// CreateInput is a new comment as submitted by UserID.
type CreateInput struct {
	NoteID          primitive.ObjectID
	GroupID         primitive.ObjectID
	UserID          primitive.ObjectID
	Content         string
	ParentCommentID *primitive.ObjectID
	ThreadID        *string
	BlockID         *string
}

// cleanContent strips markup and enforces the length rules.
func cleanContent(raw string) (string, error) {
	content := htmlsanitize.PlainText(raw)
	if content == "" {
		return "", apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", apperr.Validation("content must be at most %d characters", models.MaxCommentLength)
	}
	return content, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) noteInGroup(ctx context.Context, noteID, groupID primitive.ObjectID, op string) (models.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, apperr.NotFound("note not found")
	}
	if err != nil {
		return models.Note{}, apperr.Server(err, op)
	}
	if note.GroupID != groupID {
		return models.Note{}, apperr.NotFound("note not found")
	}
	return note, nil
}

// Create validates and stores a comment and returns it with no replies.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Node, error) {
	const op = "commenttree.Create"

	content, err := cleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	note, err := s.noteInGroup(ctx, in.NoteID, in.GroupID, op)
	if err != nil {
		return nil, err
	}

	threadID := nonEmpty(in.ThreadID)
	if in.ParentCommentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentCommentID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Validation("parentCommentId does not reference a comment")
		}
		if err != nil {
			return nil, apperr.Server(err, op)
		}
		if parent.NoteID != note.ID {
			return nil, apperr.Validation("parentCommentId belongs to a different note")
		}
		if threadID == nil {
			threadID = parent.ThreadID
		}
	}
	if threadID == nil {
		id := uuid.NewString()
		threadID = &id
	}

	now := time.Now().UTC()
	c := models.NoteComment{
		ID:              primitive.NewObjectID(),
		NoteID:          note.ID,
		GroupID:         note.GroupID,
		UserID:          in.UserID,
		Content:         content,
		ParentCommentID: in.ParentCommentID,
		ThreadID:        threadID,
		BlockID:         nonEmpty(in.BlockID),
		Metadata:        models.CommentMetadata{Reactions: []models.Reaction{}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.comments.Insert(ctx, c); err != nil {
		return nil, apperr.Server(err, op)
	}
	return &Node{NoteComment: c, Replies: []*Node{}}, nil
}

// List returns the note's comments as reply trees, oldest root first.
func (s *Service) List(ctx context.Context, noteID, groupID primitive.ObjectID) ([]*Node, error) {
	const op = "commenttree.List"

	if _, err := s.noteInGroup(ctx, noteID, groupID, op); err != nil {
		return nil, err
	}
	rows, err := s.comments.ListByNote(ctx, noteID)
	if err != nil {
		return nil, apperr.Server(err, op)
	}

	roots, orphans := BuildTree(rows)
	if orphans > 0 {
		s.log.Warn("comments with missing parent shown as roots",
			zap.String("note_id", noteID.Hex()),
			zap.Int("orphans", orphans))
	}
	return roots, nil
}

// UpdateInput patches a comment. Nil fields are left alone. A non-nil
// NoteID scopes the lookup to that note.
type UpdateInput struct {
	CommentID primitive.ObjectID
	CallerID  primitive.ObjectID
	NoteID    *primitive.ObjectID
	Content   *string
	Metadata  *models.CommentMetadata
}

// Update lets the author edit content and metadata.
func (s *Service) Update(ctx context.Context, in UpdateInput) (models.NoteComment, error) {
	const op = "commenttree.Update"

	c, err := s.comments.GetByID(ctx, in.CommentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NoteComment{}, apperr.NotFound("comment not found")
	}
	if err != nil {
		return models.NoteComment{}, apperr.Server(err, op)
	}
	if in.NoteID != nil && *in.NoteID != c.NoteID {
		return models.NoteComment{}, apperr.NotFound("comment not found")
	}
	if c.UserID != in.CallerID {
		return models.NoteComment{}, apperr.Forbidden("only the author can edit this comment")
	}

	var p commentstore.Patch
	if in.Content != nil {
		content, err := cleanContent(*in.Content)
		if err != nil {
			return models.NoteComment{}, err
		}
		p.Content = &content
	}
	p.Metadata = in.Metadata
	if p.Content == nil && p.Metadata == nil {
		return models.NoteComment{}, apperr.Validation("nothing to update")
	}

	updated, err := s.comments.Update(ctx, c.ID, p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NoteComment{}, apperr.NotFound("comment not found")
	}
	if err != nil {
		return models.NoteComment{}, apperr.Server(err, op)
	}
	return updated, nil
}

// DeleteInput names the comment to delete and who is asking. A non-nil
// NoteID scopes the lookup to that note.
type DeleteInput struct {
	CommentID primitive.ObjectID
	CallerID  primitive.ObjectID
	GroupID   primitive.ObjectID
	NoteID    *primitive.ObjectID
}

// Delete removes a comment and all of its replies, children before
// parents. The author and the group owner may delete. It returns how many
// rows were removed.
func (s *Service) Delete(ctx context.Context, in DeleteInput) (int64, error) {
	const op = "commenttree.Delete"
	callerID := in.CallerID

	c, err := s.comments.GetByID(ctx, in.CommentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, apperr.NotFound("comment not found")
	}
	if err != nil {
		return 0, apperr.Server(err, op)
	}
	if in.NoteID != nil && *in.NoteID != c.NoteID {
		return 0, apperr.NotFound("comment not found")
	}
	group, err := s.groups.GetByID(ctx, in.GroupID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, apperr.NotFound("group not found")
	}
	if err != nil {
		return 0, apperr.Server(err, op)
	}
	if c.GroupID != group.ID {
		return 0, apperr.NotFound("comment not found")
	}
	if c.UserID != callerID && !group.IsOwner(callerID) {
		return 0, apperr.Forbidden("only the author or the group owner can delete this comment")
	}

	var deleted int64
	err = s.tx.Run(ctx, op, func(ctx context.Context) error {
		deleted = 0
		order, err := s.subtree(ctx, c.ID)
		if err != nil {
			return err
		}
		// Pre-order reversed: every reply goes before its parent.
		for i := len(order) - 1; i >= 0; i-- {
			n, err := s.comments.DeleteByID(ctx, order[i])
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Server(err, op)
	}
	return deleted, nil
}

// subtree returns rootID and all of its descendants in depth-first
// pre-order. A cycle in bad data cannot loop forever.
func (s *Service) subtree(ctx context.Context, rootID primitive.ObjectID) ([]primitive.ObjectID, error) {
	seen := map[primitive.ObjectID]bool{rootID: true}
	var order []primitive.ObjectID
	stack := []primitive.ObjectID{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)

		kids, err := s.comments.ChildIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		for i := len(kids) - 1; i >= 0; i-- {
			if !seen[kids[i]] {
				seen[kids[i]] = true
				stack = append(stack, kids[i])
			}
		}
	}
	return order, nil
}
