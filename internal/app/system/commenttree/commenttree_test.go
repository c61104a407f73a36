package commenttree

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type env struct {
	svc      *Service
	comments *memComments
	tx       *countingTx
	note     models.Note
	group    models.CourseGroup
	owner    primitive.ObjectID
	author   primitive.ObjectID
	stranger primitive.ObjectID
}

func newEnv(t *testing.T, logger *zap.Logger) *env {
	t.Helper()
	owner := primitive.NewObjectID()
	author := primitive.NewObjectID()
	group := models.CourseGroup{ID: primitive.NewObjectID(), CourseID: "CS101", OwnerID: owner, MemberIDs: []primitive.ObjectID{owner, author}}
	note := models.Note{ID: primitive.NewObjectID(), GroupID: group.ID, OwnerID: owner, Title: "N"}

	comments := newMemComments()
	tx := &countingTx{}
	svc := New(memNotes{note.ID: note}, memGroups{group.ID: group}, comments, tx, logger)
	return &env{
		svc: svc, comments: comments, tx: tx,
		note: note, group: group,
		owner: owner, author: author, stranger: primitive.NewObjectID(),
	}
}

func (e *env) create(t *testing.T, content string, parent *primitive.ObjectID) *Node {
	t.Helper()
	n, err := e.svc.Create(context.Background(), CreateInput{
		NoteID: e.note.ID, GroupID: e.group.ID, UserID: e.author,
		Content: content, ParentCommentID: parent,
	})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", content, err)
	}
	// Keep created_at strictly increasing for ordering assertions.
	time.Sleep(time.Millisecond)
	return n
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	ctx := context.Background()
	otherNote := primitive.NewObjectID()
	missingParent := primitive.NewObjectID()

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"empty content", CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, Content: ""}, apperr.ErrValidation},
		{"blank content", CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, Content: "   \n\t"}, apperr.ErrValidation},
		{"markup only", CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, Content: "<b></b>"}, apperr.ErrValidation},
		{"too long", CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, Content: strings.Repeat("a", models.MaxCommentLength+1)}, apperr.ErrValidation},
		{"missing note", CreateInput{NoteID: otherNote, GroupID: e.group.ID, Content: "hi"}, apperr.ErrNotFound},
		{"note in other group", CreateInput{NoteID: e.note.ID, GroupID: primitive.NewObjectID(), Content: "hi"}, apperr.ErrNotFound},
		{"missing parent", CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, Content: "hi", ParentCommentID: &missingParent}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(e.comments.rows) != 0 {
		t.Errorf("invalid creates stored %d rows", len(e.comments.rows))
	}
}

func TestCreate_MaxLengthCountsRunes(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	content := strings.Repeat("é", models.MaxCommentLength)
	n, err := e.svc.Create(context.Background(), CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, UserID: e.author, Content: content})
	if err != nil {
		t.Fatalf("expected %d runes to be accepted: %v", models.MaxCommentLength, err)
	}
	if n.Content != content {
		t.Error("content changed")
	}
}

func TestCreate_ParentOnOtherNote(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	foreign := models.NoteComment{ID: primitive.NewObjectID(), NoteID: primitive.NewObjectID(), GroupID: e.group.ID}
	e.comments.rows[foreign.ID] = foreign

	_, err := e.svc.Create(context.Background(), CreateInput{
		NoteID: e.note.ID, GroupID: e.group.ID, UserID: e.author, Content: "hi", ParentCommentID: &foreign.ID,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_StripsMarkupAndSetsThread(t *testing.T) {
	e := newEnv(t, zap.NewNop())

	root := e.create(t, "<b>Hello</b> world", nil)
	if root.Content != "Hello world" {
		t.Errorf("Content = %q", root.Content)
	}
	if root.ThreadID == nil || *root.ThreadID == "" {
		t.Fatal("expected a generated thread id for a root")
	}
	if root.Replies == nil || len(root.Replies) != 0 {
		t.Error("expected empty replies")
	}
	if root.GroupID != e.group.ID || root.UserID != e.author {
		t.Errorf("unexpected ownership fields %+v", root.NoteComment)
	}

	reply := e.create(t, "reply", &root.ID)
	if reply.ThreadID == nil || *reply.ThreadID != *root.ThreadID {
		t.Errorf("expected reply to inherit thread id %q", *root.ThreadID)
	}

	explicit := "custom-thread"
	n, err := e.svc.Create(context.Background(), CreateInput{
		NoteID: e.note.ID, GroupID: e.group.ID, UserID: e.author, Content: "x", ThreadID: &explicit,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if *n.ThreadID != "custom-thread" {
		t.Errorf("ThreadID = %q", *n.ThreadID)
	}
}

func TestCreate_StoreFailureIsServerError(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	e.comments.failNext = errBoom

	_, err := e.svc.Create(context.Background(), CreateInput{NoteID: e.note.ID, GroupID: e.group.ID, Content: "hi"})
	if !errors.Is(err, apperr.ErrServer) {
		t.Errorf("expected server error, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Error("expected the cause to be wrapped")
	}
}

func TestList_RoundTrip(t *testing.T) {
	e := newEnv(t, zap.NewNop())

	a := e.create(t, "A", nil)
	b := e.create(t, "B", &a.ID)
	c := e.create(t, "C", &b.ID)
	d := e.create(t, "D", nil)
	b2 := e.create(t, "B2", &a.ID)

	roots, err := e.svc.List(context.Background(), e.note.ID, e.group.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(roots) != 2 || roots[0].ID != a.ID || roots[1].ID != d.ID {
		t.Fatalf("expected roots [A D], got %d roots", len(roots))
	}
	if len(roots[0].Replies) != 2 || roots[0].Replies[0].ID != b.ID || roots[0].Replies[1].ID != b2.ID {
		t.Fatalf("expected A -> [B B2]")
	}
	if len(roots[0].Replies[0].Replies) != 1 || roots[0].Replies[0].Replies[0].ID != c.ID {
		t.Fatalf("expected B -> [C]")
	}
	if len(roots[1].Replies) != 0 {
		t.Error("expected D to have no replies")
	}
}

func TestList_NoteNotInGroup(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	_, err := e.svc.List(context.Background(), e.note.ID, primitive.NewObjectID())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestList_OrphansPromotedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEnv(t, zap.New(core))

	root := e.create(t, "root", nil)
	ghost := primitive.NewObjectID()
	orphan := models.NoteComment{
		ID: primitive.NewObjectID(), NoteID: e.note.ID, GroupID: e.group.ID,
		Content: "orphan", ParentCommentID: &ghost, CreatedAt: time.Now().UTC(),
	}
	e.comments.rows[orphan.ID] = orphan

	roots, err := e.svc.List(context.Background(), e.note.ID, e.group.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(roots) != 2 || roots[0].ID != root.ID || roots[1].ID != orphan.ID {
		t.Fatalf("expected orphan promoted after root, got %d roots", len(roots))
	}
	if logs.FilterMessage("comments with missing parent shown as roots").Len() != 1 {
		t.Error("expected orphan warning")
	}
}

func TestBuildTree_Empty(t *testing.T) {
	roots, orphans := BuildTree(nil)
	if roots == nil || len(roots) != 0 || orphans != 0 {
		t.Errorf("BuildTree(nil) = %v, %d", roots, orphans)
	}
}

func TestBuildTree_SelfParentIsOrphan(t *testing.T) {
	id := primitive.NewObjectID()
	roots, orphans := BuildTree([]models.NoteComment{{ID: id, ParentCommentID: &id}})
	if len(roots) != 1 || orphans != 1 {
		t.Errorf("expected self-parented row as orphan root, got %d roots, %d orphans", len(roots), orphans)
	}
}

func TestBuildTree_ParentCycleIsPromoted(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	rows := []models.NoteComment{
		{ID: a, ParentCommentID: &b, Content: "a"},
		{ID: b, ParentCommentID: &a, Content: "b"},
		{ID: c, ParentCommentID: &b, Content: "c"},
	}

	roots, orphans := BuildTree(rows)
	if orphans != 1 {
		t.Errorf("orphans = %d, want 1", orphans)
	}
	if len(roots) != 1 || roots[0].ID != a {
		t.Fatalf("roots = %+v, want a", roots)
	}
	if r := roots[0].Replies; len(r) != 1 || r[0].ID != b {
		t.Fatalf("a replies = %+v, want b", r)
	}
	if r := roots[0].Replies[0].Replies; len(r) != 1 || r[0].ID != c || len(r[0].Replies) != 0 {
		t.Fatalf("b replies = %+v, want c only", r)
	}
}

func TestUpdate(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	c := e.create(t, "original", nil)
	ctx := context.Background()

	newContent := "edited"
	otherNote := primitive.NewObjectID()
	tests := []struct {
		name string
		in   UpdateInput
		want error
	}{
		{"missing", UpdateInput{CommentID: primitive.NewObjectID(), CallerID: e.author, Content: &newContent}, apperr.ErrNotFound},
		{"wrong note", UpdateInput{CommentID: c.ID, CallerID: e.author, NoteID: &otherNote, Content: &newContent}, apperr.ErrNotFound},
		{"not author", UpdateInput{CommentID: c.ID, CallerID: e.owner, Content: &newContent}, apperr.ErrForbidden},
		{"nothing", UpdateInput{CommentID: c.ID, CallerID: e.author}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.svc.Update(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Update() error = %v, want %v", err, tt.want)
			}
		})
	}

	md := models.CommentMetadata{Resolved: true, Reactions: []models.Reaction{{Emoji: "🐝", UserID: e.owner}}}
	got, err := e.svc.Update(ctx, UpdateInput{CommentID: c.ID, CallerID: e.author, NoteID: &e.note.ID, Content: &newContent, Metadata: &md})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Content != "edited" || !got.Metadata.Resolved || len(got.Metadata.Reactions) != 1 {
		t.Errorf("unexpected comment %+v", got)
	}

	blank := "  "
	if _, err := e.svc.Update(ctx, UpdateInput{CommentID: c.ID, CallerID: e.author, Content: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank content: expected validation error, got %v", err)
	}
}

func TestDelete_CascadeChildrenFirst(t *testing.T) {
	e := newEnv(t, zap.NewNop())

	a := e.create(t, "A", nil)
	b := e.create(t, "B", &a.ID)
	c := e.create(t, "C", &b.ID)
	other := e.create(t, "other", nil)

	n, err := e.svc.Delete(context.Background(), DeleteInput{CommentID: a.ID, CallerID: e.author, GroupID: e.group.ID})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d, want 3", n)
	}
	if e.tx.runs != 1 {
		t.Errorf("expected cascade inside one transaction run, got %d", e.tx.runs)
	}

	want := []primitive.ObjectID{c.ID, b.ID, a.ID}
	for i, id := range want {
		if e.comments.deletes[i] != id {
			t.Errorf("delete %d = %s, want %s", i, e.comments.deletes[i].Hex(), id.Hex())
		}
	}
	if _, ok := e.comments.rows[other.ID]; !ok {
		t.Error("unrelated comment was deleted")
	}

	_, err = e.svc.Delete(context.Background(), DeleteInput{CommentID: a.ID, CallerID: e.author, GroupID: e.group.ID})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestDelete_Authorization(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	ctx := context.Background()

	c1 := e.create(t, "one", nil)
	c2 := e.create(t, "two", nil)

	if _, err := e.svc.Delete(ctx, DeleteInput{CommentID: c1.ID, CallerID: e.stranger, GroupID: e.group.ID}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("stranger: expected forbidden, got %v", err)
	}
	if _, err := e.svc.Delete(ctx, DeleteInput{CommentID: c1.ID, CallerID: e.author, GroupID: primitive.NewObjectID()}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing group: expected not found, got %v", err)
	}
	if _, err := e.svc.Delete(ctx, DeleteInput{CommentID: c1.ID, CallerID: e.owner, GroupID: e.group.ID}); err != nil {
		t.Errorf("group owner: unexpected error %v", err)
	}
	if _, err := e.svc.Delete(ctx, DeleteInput{CommentID: c2.ID, CallerID: e.author, GroupID: e.group.ID}); err != nil {
		t.Errorf("author: unexpected error %v", err)
	}
}

func TestDelete_ScopedToNote(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	ctx := context.Background()

	a := e.create(t, "A", nil)
	e.create(t, "B", &a.ID)

	elsewhere := primitive.NewObjectID()
	_, err := e.svc.Delete(ctx, DeleteInput{CommentID: a.ID, CallerID: e.author, GroupID: e.group.ID, NoteID: &elsewhere})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("delete via another note: expected not found, got %v", err)
	}
	if len(e.comments.deletes) != 0 {
		t.Errorf("rows deleted via another note: %v", e.comments.deletes)
	}
	if _, ok := e.comments.rows[a.ID]; !ok {
		t.Error("comment removed via another note")
	}

	n, err := e.svc.Delete(ctx, DeleteInput{CommentID: a.ID, CallerID: e.author, GroupID: e.group.ID, NoteID: &e.note.ID})
	if err != nil || n != 2 {
		t.Errorf("delete via its own note = (%d, %v), want (2, nil)", n, err)
	}
}

func TestDelete_StoreFailureIsServerError(t *testing.T) {
	e := newEnv(t, zap.NewNop())
	c := e.create(t, "x", nil)
	e.comments.failNext = errBoom

	_, err := e.svc.Delete(context.Background(), DeleteInput{CommentID: c.ID, CallerID: e.author, GroupID: e.group.ID})
	if !errors.Is(err, apperr.ErrServer) {
		t.Errorf("expected server error, got %v", err)
	}
}
