package oauthstate_test

import (
	"testing"
	"time"

	"github.com/dalemusser/busybee/internal/app/store/oauthstate"
	"github.com/dalemusser/busybee/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_IssueConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, err := store.Issue(ctx, "/courses")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if state == "" {
		t.Fatal("expected a state token")
	}

	returnTo, valid, err := store.Consume(ctx, state)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !valid {
		t.Fatal("expected state to be valid")
	}
	if returnTo != "/courses" {
		t.Errorf("returnTo = %q", returnTo)
	}

	// Single use.
	_, valid, err = store.Consume(ctx, state)
	if err != nil {
		t.Fatalf("second Consume failed: %v", err)
	}
	if valid {
		t.Error("expected replayed state to be rejected")
	}
}

func TestStore_Consume_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, s := range []string{"", "nope"} {
		_, valid, err := store.Consume(ctx, s)
		if err != nil {
			t.Fatalf("Consume(%q) failed: %v", s, err)
		}
		if valid {
			t.Errorf("Consume(%q) reported valid", s)
		}
	}
}

func TestStore_ExpiredStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	past := time.Now().UTC().Add(-time.Minute)
	_, err := db.Collection("oauth_states").InsertOne(ctx, oauthstate.State{
		State:     "old",
		ExpiresAt: past,
		CreatedAt: past.Add(-oauthstate.DefaultTTL),
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, valid, err := store.Consume(ctx, "old")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if valid {
		t.Error("expected expired state to be rejected")
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CleanupExpired removed %d, want 1", n)
	}
	left, _ := db.Collection("oauth_states").CountDocuments(ctx, bson.M{})
	if left != 0 {
		t.Errorf("expected no states left, got %d", left)
	}
}
