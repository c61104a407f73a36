package account

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/inputval"
	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/busybee/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// decodeItem reads and validates an add/remove body.
func decodeItem(w http.ResponseWriter, r *http.Request) (itemRequest, primitive.ObjectID, error) {
	var req itemRequest
	if err := respond.Decode(w, r, &req); err != nil {
		return req, primitive.NilObjectID, err
	}
	req.CourseID = normalize.CourseID(req.CourseID)
	if err := inputval.Struct(req); err != nil {
		return req, primitive.NilObjectID, err
	}
	id, err := inputval.ObjectID("itemId", req.ItemID)
	return req, id, err
}

// listQuery reads ?courseId=&kind=.
func listQuery(r *http.Request) (string, models.ItemKind, error) {
	courseID := normalize.CourseID(r.URL.Query().Get("courseId"))
	if courseID == "" {
		return "", "", apperr.Validation("courseId is required")
	}
	kind, err := inputval.OptionalKind(r.URL.Query().Get("kind"))
	return courseID, kind, err
}

// decodeCheck reads and validates a check body.
func decodeCheck(w http.ResponseWriter, r *http.Request) (checkRequest, []primitive.ObjectID, error) {
	var req checkRequest
	if err := respond.Decode(w, r, &req); err != nil {
		return req, nil, err
	}
	req.CourseID = normalize.CourseID(req.CourseID)
	if err := inputval.Struct(req); err != nil {
		return req, nil, err
	}
	ids, err := inputval.ObjectIDs("itemIds", req.ItemIDs)
	return req, ids, err
}

func toResults(m map[primitive.ObjectID]bool) checkResponse {
	out := checkResponse{Results: make(map[string]bool, len(m))}
	for id, ok := range m {
		out.Results[id.Hex()] = ok
	}
	return out
}

// ServeFavorites handles GET /api/account/favorites?courseId=&kind=.
func (h *Handler) ServeFavorites(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	courseID, kind, err := listQuery(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	favs, err := h.Users.ListFavorites(ctx, uid, courseID, kind)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "list favorites"))
		return
	}
	respond.JSON(w, http.StatusOK, favoritesResponse{Favorites: favs})
}

// HandleAddFavorite handles POST /api/account/favorites. The item's current
// title becomes the snapshot. 201 when added, 200 when it already was a
// favorite.
func (h *Handler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	req, itemID, err := decodeItem(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ok, err := h.Users.IsRegistered(ctx, uid, req.CourseID)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "check registration"))
		return
	}
	if !ok {
		respond.Error(w, r, h.Log, classify(userstore.ErrNotRegistered, ""))
		return
	}

	kind := models.ItemKind(req.Kind)
	item, err := h.Catalog.LookupInCourse(ctx, kind, itemID, req.CourseID)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "lookup item"))
		return
	}

	fav := models.Favorite{ItemID: item.ID, Kind: kind, TitleSnapshot: item.Title}
	added, err := h.Users.AddFavorite(ctx, uid, req.CourseID, fav)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "add favorite"))
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respond.JSON(w, status, fav)
}

// HandleRemoveFavorite handles DELETE /api/account/favorites. Removing an
// item that is not a favorite succeeds.
func (h *Handler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	req, itemID, err := decodeItem(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.RemoveFavorite(ctx, uid, req.CourseID, itemID); err != nil {
		respond.Error(w, r, h.Log, classify(err, "remove favorite"))
		return
	}
	respond.NoContent(w)
}

// HandleCheckFavorites handles POST /api/account/favorites/check.
func (h *Handler) HandleCheckFavorites(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	req, ids, err := decodeCheck(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Users.CheckFavorites(ctx, uid, req.CourseID, models.ItemKind(req.Kind), ids)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "check favorites"))
		return
	}
	respond.JSON(w, http.StatusOK, toResults(res))
}
