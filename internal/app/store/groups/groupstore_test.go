package groupstore_test

import (
	"errors"
	"fmt"
	"testing"

	groupstore "github.com/dalemusser/busybee/internal/app/store/groups"
	"github.com/dalemusser/busybee/internal/app/system/indexes"
	"github.com/dalemusser/busybee/internal/app/system/paging"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/dalemusser/busybee/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	g, err := store.Create(ctx, " CS101 ", "  Study   Group ", owner, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.CourseID != "CS101" || g.Name != "Study Group" {
		t.Errorf("expected normalized fields, got %q / %q", g.CourseID, g.Name)
	}
	if g.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if !g.IsMember(owner) || len(g.MemberIDs) != 1 {
		t.Errorf("expected owner as the only member, got %v", g.MemberIDs)
	}
	if g.Private() {
		t.Error("expected public group")
	}

	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != g.Name {
		t.Errorf("GetByID name = %q", got.Name)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	owner := primitive.NewObjectID()
	if _, err := store.Create(ctx, "CS101", "Study Group", owner, ""); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, "CS101", "study group", owner, "")
	if !errors.Is(err, groupstore.ErrDuplicateGroupName) {
		t.Errorf("expected ErrDuplicateGroupName, got %v", err)
	}
}

func TestStore_JoinLeave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	g, err := store.Create(ctx, "CS101", "Private", owner, "sesame")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !g.Private() {
		t.Fatal("expected private group")
	}

	if err := store.Join(ctx, g.ID, member, "wrong"); !errors.Is(err, groupstore.ErrBadJoinCode) {
		t.Errorf("expected ErrBadJoinCode, got %v", err)
	}
	if err := store.Join(ctx, g.ID, member, "sesame"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	// Idempotent.
	if err := store.Join(ctx, g.ID, member, "sesame"); err != nil {
		t.Fatalf("second Join failed: %v", err)
	}

	got, _ := store.GetByID(ctx, g.ID)
	if len(got.MemberIDs) != 2 || !got.IsMember(member) {
		t.Errorf("expected owner + member, got %v", got.MemberIDs)
	}

	groups, _, err := store.ListForMember(ctx, member, "CS101", paging.Params{})
	if err != nil {
		t.Fatalf("ListForMember failed: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("expected 1 group, got %d", len(groups))
	}

	if err := store.Leave(ctx, g.ID, owner); !errors.Is(err, groupstore.ErrOwnerCannotLeave) {
		t.Errorf("expected ErrOwnerCannotLeave, got %v", err)
	}
	if err := store.Leave(ctx, g.ID, member); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	got, _ = store.GetByID(ctx, g.ID)
	if got.IsMember(member) {
		t.Error("expected member to be removed")
	}
}

func TestStore_Join_UnknownGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Join(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_CourseOf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "BIO200", "Cells", primitive.NewObjectID())
	course, err := store.CourseOf(ctx, g.ID)
	if err != nil {
		t.Fatalf("CourseOf failed: %v", err)
	}
	if course != "BIO200" {
		t.Errorf("CourseOf = %q", course)
	}
}

func TestStore_ListForMember_Pages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	for i := 0; i < paging.PageSize+5; i++ {
		if _, err := store.Create(ctx, "CS101", fmt.Sprintf("Group %03d", i), owner, ""); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	first, res, err := store.ListForMember(ctx, owner, "CS101", paging.Params{})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first) != paging.PageSize || !res.HasNext || res.HasPrev {
		t.Fatalf("first page: %d rows, %+v", len(first), res)
	}
	if first[0].Name != "Group 000" {
		t.Errorf("first row = %q", first[0].Name)
	}

	page := paging.BuildPage(first, res,
		func(g models.CourseGroup) string { return g.NameCI },
		func(g models.CourseGroup) primitive.ObjectID { return g.ID })
	second, res, err := store.ListForMember(ctx, owner, "CS101", paging.Params{After: page.NextCursor})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second) != 5 || res.HasNext || !res.HasPrev {
		t.Fatalf("second page: %d rows, %+v", len(second), res)
	}
	if second[0].Name != fmt.Sprintf("Group %03d", paging.PageSize) {
		t.Errorf("second page starts at %q", second[0].Name)
	}

	back, _, err := store.ListForMember(ctx, owner, "CS101", paging.Params{Before: paging.BuildPage(second, res,
		func(g models.CourseGroup) string { return g.NameCI },
		func(g models.CourseGroup) primitive.ObjectID { return g.ID }).PrevCursor})
	if err != nil {
		t.Fatalf("previous page failed: %v", err)
	}
	if len(back) != paging.PageSize || back[len(back)-1].Name != first[len(first)-1].Name {
		t.Errorf("previous page: %d rows ending %q", len(back), back[len(back)-1].Name)
	}
}
