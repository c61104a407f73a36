// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/busybee/internal/app/system/authz"
	"github.com/dalemusser/busybee/internal/app/system/inputval"
	"github.com/dalemusser/busybee/internal/app/system/respond"
	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/dalemusser/busybee/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// GroupGetter loads a course group. Implemented by groupstore.Store.
type GroupGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.CourseGroup, error)
}

type ctxKey struct{}

// Group returns the group loaded by RequireMember.
func Group(r *http.Request) (models.CourseGroup, bool) {
	g, ok := r.Context().Value(ctxKey{}).(models.CourseGroup)
	return g, ok
}

// WithGroup stores g on the request, as RequireMember does.
func WithGroup(r *http.Request, g models.CourseGroup) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, g))
}

// RequireMember loads the group named by the {param} URL parameter and
// lets the request through only if the signed-in user belongs to it (the
// owner counts). Missing groups are 404, non-members 403.
func RequireMember(groups GroupGetter, logger *zap.Logger, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := authz.UserID(r)
			if !ok {
				respond.Error(w, r, logger, apperr.Unauthorized("sign in required"))
				return
			}
			gid, err := inputval.ObjectID(param, chi.URLParam(r, param))
			if err != nil {
				respond.Error(w, r, logger, err)
				return
			}

			ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), logger, "grouppolicy.RequireMember")
			g, err := groups.GetByID(ctx, gid)
			cancel()
			if errors.Is(err, mongo.ErrNoDocuments) {
				respond.Error(w, r, logger, apperr.NotFound("group not found"))
				return
			}
			if err != nil {
				respond.Error(w, r, logger, apperr.Server(err, "load group"))
				return
			}
			if !g.IsMember(uid) {
				respond.Error(w, r, logger, apperr.Forbidden("you are not a member of this group"))
				return
			}

			next.ServeHTTP(w, WithGroup(r, g))
		})
	}
}

// CanManageItem reports whether userID may edit or delete an item owned by
// itemOwner inside g: the item's owner and the group's owner can.
func CanManageItem(g models.CourseGroup, itemOwner, userID primitive.ObjectID) bool {
	return itemOwner == userID || g.IsOwner(userID)
}
