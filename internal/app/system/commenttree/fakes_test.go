package commenttree

import (
	"context"
	"errors"
	"sort"
	"sync"

	commentstore "github.com/dalemusser/busybee/internal/app/store/notecomments"
	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type memNotes map[primitive.ObjectID]models.Note

func (m memNotes) GetByID(_ context.Context, id primitive.ObjectID) (models.Note, error) {
	n, ok := m[id]
	if !ok {
		return models.Note{}, mongo.ErrNoDocuments
	}
	return n, nil
}

type memGroups map[primitive.ObjectID]models.CourseGroup

func (m memGroups) GetByID(_ context.Context, id primitive.ObjectID) (models.CourseGroup, error) {
	g, ok := m[id]
	if !ok {
		return models.CourseGroup{}, mongo.ErrNoDocuments
	}
	return g, nil
}

type memComments struct {
	mu       sync.Mutex
	rows     map[primitive.ObjectID]models.NoteComment
	deletes  []primitive.ObjectID
	failNext error
}

func newMemComments() *memComments {
	return &memComments{rows: map[primitive.ObjectID]models.NoteComment{}}
}

func (m *memComments) Insert(_ context.Context, c models.NoteComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.rows[c.ID] = c
	return nil
}

func (m *memComments) GetByID(_ context.Context, id primitive.ObjectID) (models.NoteComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return models.NoteComment{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (m *memComments) sorted(keep func(models.NoteComment) bool) []models.NoteComment {
	var out []models.NoteComment
	for _, c := range m.rows {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (m *memComments) ListByNote(_ context.Context, noteID primitive.ObjectID) ([]models.NoteComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(c models.NoteComment) bool { return c.NoteID == noteID }), nil
}

func (m *memComments) ChildIDs(_ context.Context, parentID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []primitive.ObjectID
	for _, c := range m.sorted(func(c models.NoteComment) bool {
		return c.ParentCommentID != nil && *c.ParentCommentID == parentID
	}) {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (m *memComments) DeleteByID(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return 0, err
	}
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	m.deletes = append(m.deletes, id)
	return 1, nil
}

func (m *memComments) Update(_ context.Context, id primitive.ObjectID, p commentstore.Patch) (models.NoteComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return models.NoteComment{}, mongo.ErrNoDocuments
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Metadata != nil {
		c.Metadata = *p.Metadata
	}
	m.rows[id] = c
	return c, nil
}

type countingTx struct{ runs int }

func (t *countingTx) Run(ctx context.Context, _ string, fn func(context.Context) error) error {
	t.runs++
	return fn(ctx)
}

var errBoom = errors.New("boom")
