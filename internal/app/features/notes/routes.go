// internal/app/features/notes/routes.go
package notes

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/groups/{groupId}/notes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{noteId}", h.ServeNote)
	r.Patch("/{noteId}", h.HandleUpdate)
	r.Delete("/{noteId}", h.HandleDelete)

	return r
}
