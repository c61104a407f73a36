// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTTL is how long a login attempt may take.
const DefaultTTL = 10 * time.Minute

// State is an OAuth2 state token stored for CSRF protection. Expired
// documents are removed by the TTL index on expires_at.
type State struct {
	State     string    `bson:"state"`
	ReturnTo  string    `bson:"return_to,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c   *mongo.Collection
	ttl time.Duration
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states"), ttl: DefaultTTL}
}

// Issue creates and stores a fresh random state token.
func (s *Store) Issue(ctx context.Context, returnTo string) (string, error) {
	state := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		ReturnTo:  returnTo,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// Consume checks that a state token exists and has not expired, and deletes
// it so it cannot be replayed. valid is false for unknown or expired tokens.
func (s *Store) Consume(ctx context.Context, state string) (returnTo string, valid bool, err error) {
	if state == "" {
		return "", false, nil
	}
	var st State
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return st.ReturnTo, true, nil
}

// CleanupExpired removes expired state tokens. The TTL monitor runs about
// once a minute; this is for callers that cannot wait.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
