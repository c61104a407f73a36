// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup and by `busybeectl ensure-indexes`. Each
ensure* function is idempotent. Errors are aggregated so every problem is
visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"course_groups", ensureCourseGroups},
		{"notes", ensureNotes},
		{"flashcard_sets", ensureFlashcardSets},
		{"note_comments", ensureNoteComments},
		{"oauth_states", ensureOAuthStates},
	}

	var problems []string
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool { return p != nil && *p }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB return IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// recreate drops ex and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, ex existingIndex, m mongo.IndexModel, name string) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		return fmt.Errorf("%s(%s): drop %s failed: %w", coll.Name(), name, ex.Name, err)
	}
	return create(ctx, coll, m, name)
}

func create(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, name string) error {
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) && m.Options != nil && boolVal(m.Options.Unique) {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
		}
		return fmt.Errorf("%s(%s): %w", coll.Name(), name, err)
	}
	return nil
}

func ensureOne(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel) error {
	var name string
	var unique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))

	start := time.Now()
	fields := []zap.Field{
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", boolVal(unique)),
	}

	if ex, ok := listIndexes(ctx, coll)[sig]; ok {
		switch {
		case boolVal(unique) != boolVal(ex.Unique):
			// e.g. upgrading to unique
			if err := recreate(ctx, coll, ex, m, name); err != nil {
				return err
			}
			zap.L().Info("index dropped and recreated", append(fields, zap.Duration("took", time.Since(start)))...)
		case name != "" && ex.Name != name:
			if err := recreate(ctx, coll, ex, m, name); err != nil {
				return err
			}
			zap.L().Info("index renamed", append(fields, zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))...)
		default:
			zap.L().Debug("reusing existing index", fields...)
		}
		return nil
	}

	err := create(ctx, coll, m, name)
	if err != nil && isOptionsConflictErr(err) {
		// Raced with another creator or a TTL option differs; reconcile once.
		if ex, ok := listIndexes(ctx, coll)[sig]; ok {
			if boolVal(unique) == boolVal(ex.Unique) {
				return nil
			}
			err = recreate(ctx, coll, ex, m, name)
		}
	}
	if err != nil {
		zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
		return err
	}
	zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, m); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys: bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_google_id").
				SetPartialFilterExpression(bson.M{"google_id": bson.M{"$type": "string"}}),
		},
		// Snapshot fan-out filters on these; without them every rename
		// is a collection scan.
		{
			Keys:    bson.D{{Key: "registered_courses.favorites.item_id", Value: 1}},
			Options: options.Index().SetName("idx_users_fav_item"),
		},
		{
			Keys:    bson.D{{Key: "registered_courses.recently_viewed.item_id", Value: 1}},
			Options: options.Index().SetName("idx_users_rv_item"),
		},
	})
}

func ensureCourseGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("course_groups"), []mongo.IndexModel{
		// Group names are unique within a course (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "course_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_course_groups_course_nameci"),
		},
		{
			Keys:    bson.D{{Key: "member_ids", Value: 1}},
			Options: options.Index().SetName("idx_course_groups_members"),
		},
	})
}

func ensureNotes(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notes"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_notes_group_updated"),
		},
	})
}

func ensureFlashcardSets(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("flashcard_sets"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_flashcard_sets_group_updated"),
		},
	})
}

func ensureNoteComments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("note_comments"), []mongo.IndexModel{
		// List: all comments of a note in creation order.
		{
			Keys:    bson.D{{Key: "note_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_note_comments_note_created"),
		},
		// Cascade delete walks children by parent.
		{
			Keys:    bson.D{{Key: "parent_comment_id", Value: 1}},
			Options: options.Index().SetName("idx_note_comments_parent"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("oauth_states"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	})
}
