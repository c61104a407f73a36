// internal/app/features/groups/handler.go
package groups

import (
	"errors"

	groupstore "github.com/dalemusser/busybee/internal/app/store/groups"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves course groups: creating, viewing, joining and leaving.
type Handler struct {
	Groups *groupstore.Store
	Users  *userstore.Store
	Log    *zap.Logger
}

func NewHandler(groups *groupstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Users: users, Log: logger}
}

func classify(err error, op string) error {
	switch {
	case errors.Is(err, groupstore.ErrDuplicateGroupName):
		return apperr.Validation("a group with this name already exists in the course")
	case errors.Is(err, groupstore.ErrBadJoinCode):
		return apperr.Forbidden("join code is incorrect")
	case errors.Is(err, groupstore.ErrOwnerCannotLeave):
		return apperr.Validation("the group owner cannot leave the group")
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("group not found")
	}
	return apperr.Server(err, op)
}
