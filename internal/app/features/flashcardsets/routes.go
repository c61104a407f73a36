// internal/app/features/flashcardsets/routes.go
package flashcardsets

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/groups/{groupId}/flashcard-sets.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{setId}", h.ServeSet)
	r.Patch("/{setId}", h.HandleUpdate)
	r.Delete("/{setId}", h.HandleDelete)

	return r
}
