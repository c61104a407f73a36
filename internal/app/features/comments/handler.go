// internal/app/features/comments/handler.go
package comments

import (
	"github.com/dalemusser/busybee/internal/app/system/commenttree"
	"go.uber.org/zap"
)

// Handler serves the comment threads of a note.
type Handler struct {
	Tree *commenttree.Service
	Log  *zap.Logger
}

func NewHandler(tree *commenttree.Service, logger *zap.Logger) *Handler {
	return &Handler{Tree: tree, Log: logger}
}
