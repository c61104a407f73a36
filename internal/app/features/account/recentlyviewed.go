package account

import (
	"context"
	"net/http"
	"time"

	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/busybee/internal/domain/models"
)

// ServeRecentlyViewed handles GET /api/account/recently-viewed?courseId=&kind=.
// Entries are newest first.
func (h *Handler) ServeRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	courseID, kind, err := listQuery(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	views, err := h.Users.ListRecentlyViewed(ctx, uid, courseID, kind)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "list recently viewed"))
		return
	}
	respond.JSON(w, http.StatusOK, recentlyViewedResponse{RecentlyViewed: views})
}

// HandleRecordView handles POST /api/account/recently-viewed. A repeat view
// moves the item to the front with a fresh snapshot.
func (h *Handler) HandleRecordView(w http.ResponseWriter, r *http.Request) {
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

	rv := models.RecentlyViewed{
		ItemID:        item.ID,
		Kind:          kind,
		TitleSnapshot: item.Title,
		ViewedAt:      time.Now().UTC(),
	}
	if err := h.Users.RecordView(ctx, uid, req.CourseID, rv); err != nil {
		respond.Error(w, r, h.Log, classify(err, "record view"))
		return
	}
	respond.JSON(w, http.StatusOK, rv)
}

// HandleRemoveView handles DELETE /api/account/recently-viewed.
func (h *Handler) HandleRemoveView(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	req, itemID, err := decodeItem(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.RemoveView(ctx, uid, req.CourseID, itemID); err != nil {
		respond.Error(w, r, h.Log, classify(err, "remove view"))
		return
	}
	respond.NoContent(w)
}

// HandleCheckRecentlyViewed handles POST /api/account/recently-viewed/check.
func (h *Handler) HandleCheckRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	req, ids, err := decodeCheck(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Users.CheckRecentlyViewed(ctx, uid, req.CourseID, models.ItemKind(req.Kind), ids)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "check recently viewed"))
		return
	}
	respond.JSON(w, http.StatusOK, toResults(res))
}
