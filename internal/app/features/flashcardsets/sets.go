package flashcardsets

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/policy/grouppolicy"
	setstore "github.com/dalemusser/busybee/internal/app/store/flashcardsets"
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
	SetName string             `json:"setName" validate:"required,max=200"`
	Cards   []models.Flashcard `json:"cards" validate:"max=500,dive"`
}

type updateRequest struct {
	SetName *string            `json:"setName" validate:"omitempty,min=1,max=200"`
	Cards   []models.Flashcard `json:"cards" validate:"omitempty,max=500,dive"`
}

type listResponse struct {
	FlashcardSets []models.FlashcardSet `json:"flashcardSets"`
}

// cleanCards strips markup from card faces.
func cleanCards(cards []models.Flashcard) []models.Flashcard {
	if cards == nil {
		return nil
	}
	out := make([]models.Flashcard, len(cards))
	for i, c := range cards {
		out[i] = models.Flashcard{Front: htmlsanitize.PlainText(c.Front), Back: htmlsanitize.PlainText(c.Back)}
	}
	return out
}

func (h *Handler) load(ctx context.Context, r *http.Request) (models.FlashcardSet, error) {
	g, _ := grouppolicy.Group(r)
	id, err := inputval.ObjectID("setId", chi.URLParam(r, "setId"))
	if err != nil {
		return models.FlashcardSet{}, err
	}
	fs, err := h.Sets.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && fs.GroupID != g.ID) {
		return models.FlashcardSet{}, apperr.NotFound("flashcard set not found")
	}
	if err != nil {
		return models.FlashcardSet{}, apperr.Server(err, "load flashcard set")
	}
	return fs, nil
}

func (h *Handler) loadManaged(ctx context.Context, r *http.Request) (models.FlashcardSet, error) {
	fs, err := h.load(ctx, r)
	if err != nil {
		return fs, err
	}
	g, _ := grouppolicy.Group(r)
	uid, _ := authz.UserID(r)
	if !grouppolicy.CanManageItem(g, fs.OwnerID, uid) {
		return models.FlashcardSet{}, apperr.Forbidden("only the set's owner or the group owner can change it")
	}
	return fs, nil
}

// ServeList handles GET /flashcard-sets.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sets, err := h.Sets.ListByGroup(ctx, g.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "list flashcard sets"))
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{FlashcardSets: sets})
}

// HandleCreate handles POST /flashcard-sets.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)
	uid, _ := authz.UserID(r)

	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.SetName = normalize.Title(req.SetName)
	req.Cards = cleanCards(req.Cards)
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fs, err := h.Sets.Create(ctx, models.FlashcardSet{
		GroupID: g.ID,
		OwnerID: uid,
		SetName: req.SetName,
		Cards:   req.Cards,
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "create flashcard set"))
		return
	}
	respond.JSON(w, http.StatusCreated, fs)
}

// ServeSet handles GET /flashcard-sets/{setId}.
func (h *Handler) ServeSet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fs, err := h.load(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, fs)
}

// HandleUpdate handles PATCH /flashcard-sets/{setId}. Cards, when given,
// replace the whole deck.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.SetName != nil {
		n := normalize.Title(*req.SetName)
		if n == "" {
			respond.Error(w, r, h.Log, apperr.Validation("setName cannot be empty"))
			return
		}
		req.SetName = &n
	}
	req.Cards = cleanCards(req.Cards)
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.SetName == nil && req.Cards == nil {
		respond.Error(w, r, h.Log, apperr.Validation("nothing to update"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fs, err := h.loadManaged(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	updated, err := h.Sets.Update(ctx, fs.ID, setstore.Update{SetName: req.SetName, Cards: req.Cards})
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("flashcard set not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "update flashcard set"))
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /flashcard-sets/{setId}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fs, err := h.loadManaged(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	err = h.Sets.Delete(ctx, fs.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("flashcard set not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Server(err, "delete flashcard set"))
		return
	}
	respond.NoContent(w)
}
