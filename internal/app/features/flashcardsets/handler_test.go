package flashcardsets_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/busybee/internal/app/features/flashcardsets"
	"github.com/dalemusser/busybee/internal/app/policy/grouppolicy"
	setstore "github.com/dalemusser/busybee/internal/app/store/flashcardsets"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/dalemusser/busybee/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingHooks struct {
	names   map[primitive.ObjectID]string
	deleted []primitive.ObjectID
}

func (h *recordingHooks) OnFlashcardSetNameSaved(id primitive.ObjectID, name string) {
	h.names[id] = name
}

func (h *recordingHooks) OnFlashcardSetDeleted(id primitive.ObjectID) {
	h.deleted = append(h.deleted, id)
}

func call(t *testing.T, h http.HandlerFunc, g models.CourseGroup, as models.User, method, setID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, "/flashcard-sets", body)
	req = testutil.WithUser(req, testutil.UserFromID(as.ID, as.FullName))
	if setID != "" {
		req = testutil.WithChiURLParam(req, "setId", setID)
	}
	req = grouppolicy.WithGroup(req, g)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestFlashcardSets_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	member := f.CreateUser(ctx, "Member", "member@example.com")
	g := f.CreateGroup(ctx, "bio-101", "Study", owner.ID, member.ID)

	hooks := &recordingHooks{names: map[primitive.ObjectID]string{}}
	h := flashcardsets.NewHandler(setstore.New(db, hooks), zap.NewNop())

	rec := call(t, h.HandleCreate, g, member, http.MethodPost, "", map[string]any{
		"setName": "Organelles",
		"cards":   []map[string]string{{"front": "<b>ATP</b>", "back": "energy"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var fs models.FlashcardSet
	testutil.DecodeJSON(t, rec, &fs)
	if len(fs.Cards) != 1 || fs.Cards[0].Front != "ATP" {
		t.Errorf("cards = %+v, want markup stripped", fs.Cards)
	}

	rec = call(t, h.HandleCreate, g, member, http.MethodPost, "", map[string]any{
		"setName": "Bad",
		"cards":   []map[string]string{{"front": "only front"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete card status = %d, want 400", rec.Code)
	}

	id := fs.ID.Hex()
	if rec := call(t, h.HandleUpdate, g, owner, http.MethodPatch, id, map[string]any{"setName": "Cell Parts"}); rec.Code != http.StatusOK {
		t.Fatalf("group owner rename status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if hooks.names[fs.ID] != "Cell Parts" {
		t.Errorf("hook name = %q", hooks.names[fs.ID])
	}

	stranger := f.CreateUser(ctx, "Stranger", "s@example.com")
	g2 := f.CreateGroup(ctx, "bio-101", "Stranger Group", stranger.ID)
	if rec := call(t, h.ServeSet, g2, stranger, http.MethodGet, id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-group view status = %d, want 404", rec.Code)
	}

	rec = call(t, h.ServeList, g, owner, http.MethodGet, "", nil)
	var list struct {
		FlashcardSets []models.FlashcardSet `json:"flashcardSets"`
	}
	testutil.DecodeJSON(t, rec, &list)
	if len(list.FlashcardSets) != 1 || list.FlashcardSets[0].SetName != "Cell Parts" {
		t.Errorf("list = %+v", list.FlashcardSets)
	}

	if rec := call(t, h.HandleDelete, g, member, http.MethodDelete, id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(hooks.deleted) != 1 {
		t.Errorf("deleted hooks = %v", hooks.deleted)
	}
}

func TestFlashcardSets_MemberCannotEditOthersSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	member := f.CreateUser(ctx, "Member", "member@example.com")
	g := f.CreateGroup(ctx, "bio-101", "Study", owner.ID, member.ID)
	fs := f.CreateFlashcardSet(ctx, g.ID, owner.ID, "Owner's")

	h := flashcardsets.NewHandler(setstore.New(db, nil), zap.NewNop())

	if rec := call(t, h.HandleUpdate, g, member, http.MethodPatch, fs.ID.Hex(), map[string]any{"setName": "Mine"}); rec.Code != http.StatusForbidden {
		t.Errorf("update status = %d, want 403", rec.Code)
	}
	if rec := call(t, h.HandleDelete, g, member, http.MethodDelete, fs.ID.Hex(), nil); rec.Code != http.StatusForbidden {
		t.Errorf("delete status = %d, want 403", rec.Code)
	}
}
