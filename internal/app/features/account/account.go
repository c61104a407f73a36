package account

import (
	"context"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/inputval"
	"github.com/dalemusser/busybee/internal/app/system/normalize"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeAccount handles GET /api/account.
func (h *Handler) ServeAccount(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err, "load account"))
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// HandleRegisterCourse handles POST /api/account/courses.
func (h *Handler) HandleRegisterCourse(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)

	var req registerCourseRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.CourseID = normalize.CourseID(req.CourseID)
	if err := inputval.Struct(req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.RegisterCourse(ctx, uid, req.CourseID, req.CourseName); err != nil {
		respond.Error(w, r, h.Log, classify(err, "register course"))
		return
	}
	respond.JSON(w, http.StatusOK, req)
}

// HandleUnregisterCourse handles DELETE /api/account/courses/{courseId}.
func (h *Handler) HandleUnregisterCourse(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.UserID(r)
	courseID := normalize.CourseID(chi.URLParam(r, "courseId"))
	if courseID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("courseId is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UnregisterCourse(ctx, uid, courseID); err != nil {
		respond.Error(w, r, h.Log, classify(err, "unregister course"))
		return
	}
	respond.NoContent(w)
}
