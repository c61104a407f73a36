// internal/app/features/notes/handler.go
package notes

import (
	notestore "github.com/dalemusser/busybee/internal/app/store/notes"
	"go.uber.org/zap"
)

// Handler serves the notes of one course group. Routes mount beneath the
// group router, which has already checked membership.
type Handler struct {
	Notes *notestore.Store
	Log   *zap.Logger
}

func NewHandler(notes *notestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notes: notes, Log: logger}
}
