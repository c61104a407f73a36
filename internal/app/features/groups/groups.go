package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/policy/grouppolicy"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/inputval"
	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/app/system/paging"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	CourseID string `json:"courseId" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=100"`
	JoinCode string `json:"joinCode" validate:"omitempty,min=4,max=64"`
}

type joinRequest struct {
	JoinCode string `json:"joinCode"`
}

type groupsResponse struct {
	Groups []models.CourseGroup `json:"groups"`
	paging.Page
}

// requireRegistered fails with 404 unless the caller is registered in courseID.
func (h *Handler) requireRegistered(ctx context.Context, r *http.Request, courseID string) error {
	uid, _ := authz.UserID(r)
	ok, err := h.Users.IsRegistered(ctx, uid, courseID)
	if err != nil {
		return apperr.Server(err, "check registration")
	}
	if !ok {
		return apperr.NotFound("%s", userstore.ErrNotRegistered.Error())
	}
	return nil
}

// ServeMyGroups handles GET /api/groups?courseId=&after=&before=.
func (h *Handler) ServeMyGroups(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	courseID := normalize.CourseID(query.Get(r, "courseId"))
	p := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gs, res, err := h.Groups.ListForMember(ctx, uid, courseID, p)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "list groups"))
		return
	}
	respond.JSON(w, http.StatusOK, groupsResponse{
		Groups: gs,
		Page: paging.BuildPage(gs, res,
			func(g models.CourseGroup) string { return g.NameCI },
			func(g models.CourseGroup) primitive.ObjectID { return g.ID }),
	})
}

// HandleCreateGroup handles POST /api/groups. The caller must be registered
// in the course and becomes the owner.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)

	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.CourseID = normalize.CourseID(req.CourseID)
	req.Name = normalize.Name(req.Name)
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.requireRegistered(ctx, r, req.CourseID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	g, err := h.Groups.Create(ctx, req.CourseID, req.Name, uid, req.JoinCode)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "create group"))
		return
	}
	respond.JSON(w, http.StatusCreated, g)
}

// ServeGroup handles GET /api/groups/{groupId}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	g, _ := grouppolicy.Group(r)
	respond.JSON(w, http.StatusOK, g)
}

// HandleJoin handles POST /api/groups/{groupId}/join. Private groups need
// the join code.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	gid, err := inputval.ObjectID("groupId", chi.URLParam(r, "groupId"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req joinRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(w, r, &req); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	courseID, err := h.Groups.CourseOf(ctx, gid)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "load group"))
		return
	}
	if err := h.requireRegistered(ctx, r, courseID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Groups.Join(ctx, gid, uid, req.JoinCode); err != nil {
		respond.Error(w, r, h.Log, classify(err, "join group"))
		return
	}
	respond.NoContent(w)
}

// HandleLeave handles POST /api/groups/{groupId}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	g, _ := grouppolicy.Group(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Groups.Leave(ctx, g.ID, uid); err != nil {
		respond.Error(w, r, h.Log, classify(err, "leave group"))
		return
	}
	respond.NoContent(w)
}
