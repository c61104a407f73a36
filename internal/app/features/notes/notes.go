package notes

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/policy/grouppolicy"
	notestore "github.com/dalemusser/busybee/internal/app/store/notes"
	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/htmlsanitize"
	"github.com/dalemusser/busybee/internal/app/system/inputval"
	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type createRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"max=200000"`
}

type updateRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,max=200000"`
}

type listResponse struct {
	Notes []models.Note `json:"notes"`
}

// load fetches {noteId} and checks that it lives in the request's group.
func (h *Handler) load(ctx context.Context, r *http.Request) (models.Note, error) {
	g, _ := grouppolicy.Group(r)
	id, err := inputval.ObjectID("noteId", chi.URLParam(r, "noteId"))
	if err != nil {
		return models.Note{}, err
	}
	n, err := h.Notes.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && n.GroupID != g.ID) {
		return models.Note{}, apperr.NotFound("note not found")
	}
	if err != nil {
		return models.Note{}, apperr.Server(err, "load note")
	}
	return n, nil
}

// loadManaged is load plus the owner-or-group-owner check.
func (h *Handler) loadManaged(ctx context.Context, r *http.Request) (models.Note, error) {
	n, err := h.load(ctx, r)
	if err != nil {
		return n, err
	}
	g, _ := grouppolicy.Group(r)
	uid, _ := authz.UserID(r)
	if !grouppolicy.CanManageItem(g, n.OwnerID, uid) {
		return models.Note{}, apperr.Forbidden("only the note's owner or the group owner can change it")
	}
	return n, nil
}

// ServeList handles GET /notes.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ns, err := h.Notes.ListByGroup(ctx, g.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "list notes"))
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{Notes: ns})
}

// HandleCreate handles POST /notes.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)
	uid, _ := authz.UserID(r)

	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.Title = normalize.Title(req.Title)
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notes.Create(ctx, models.Note{
		GroupID: g.ID,
		OwnerID: uid,
		Title:   req.Title,
		Content: htmlsanitize.Sanitize(req.Content),
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "create note"))
		return
	}
	respond.JSON(w, http.StatusCreated, n)
}

// ServeNote handles GET /notes/{noteId}.
func (h *Handler) ServeNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.load(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, n)
}

// HandleUpdate handles PATCH /notes/{noteId}. A title change is fanned out
// to favorites and recently viewed lists by the store's hooks.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.Title != nil {
		t := normalize.Title(*req.Title)
		if t == "" {
			respond.Error(w, r, h.Log, apperr.Validation("title cannot be empty"))
			return
		}
		req.Title = &t
	}
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.Title == nil && req.Content == nil {
		respond.Error(w, r, h.Log, apperr.Validation("nothing to update"))
		return
	}
	if req.Content != nil {
		c := htmlsanitize.Sanitize(*req.Content)
		req.Content = &c
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.loadManaged(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	updated, err := h.Notes.Update(ctx, n.ID, notestore.Update{Title: req.Title, Content: req.Content})
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("note not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "update note"))
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /notes/{noteId}. The note's comments go with
// it and references to it are removed from every user's lists.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.loadManaged(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	err = h.Notes.Delete(ctx, n.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("note not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "delete note"))
		return
	}
	respond.NoContent(w)
}
