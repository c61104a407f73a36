// internal/app/features/comments/routes.go
package comments

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/groups/{groupId}/notes/{noteId}/comments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeThreads)
	r.Post("/", h.HandleCreate)
	r.Patch("/{commentId}", h.HandleUpdate)
	r.Delete("/{commentId}", h.HandleDelete)

	return r
}
