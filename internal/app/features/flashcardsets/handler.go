// internal/app/features/flashcardsets/handler.go
package flashcardsets

import (
	setstore "github.com/dalemusser/busybee/internal/app/store/flashcardsets"
	"go.uber.org/zap"
)

// Handler serves the flashcard sets of one course group. Routes mount
// beneath the group router, which has already checked membership.
type Handler struct {
	Sets *setstore.Store
	Log  *zap.Logger
}

func NewHandler(sets *setstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Sets: sets, Log: logger}
}
