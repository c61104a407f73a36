// internal/app/features/account/handler.go
package account

import (
	"errors"

	"github.com/dalemusser/busybee/internal/app/store/catalog"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's account: course registrations,
// favorites and recently viewed items.
type Handler struct {
	Users   *userstore.Store
	Catalog *catalog.Catalog
	Log     *zap.Logger
}

func NewHandler(users *userstore.Store, cat *catalog.Catalog, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Catalog: cat, Log: logger}
}

// classify maps store errors to API errors.
func classify(err error, op string) error {
	switch {
	case errors.Is(err, userstore.ErrNotRegistered):
		return apperr.NotFound("you are not registered in this course")
	case errors.Is(err, catalog.ErrItemNotFound):
		return apperr.NotFound("item not found in this course")
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("user not found")
	}
	return apperr.Server(err, op)
}
