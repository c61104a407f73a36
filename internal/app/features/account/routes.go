// internal/app/features/account/routes.go
package account

import (
	"github.com/dalemusser/busybee/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /api/account.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeAccount)

		pr.Post("/courses", h.HandleRegisterCourse)
		pr.Delete("/courses/{courseId}", h.HandleUnregisterCourse)

		pr.Get("/favorites", h.ServeFavorites)
		pr.Post("/favorites", h.HandleAddFavorite)
		pr.Delete("/favorites", h.HandleRemoveFavorite)
		pr.Post("/favorites/check", h.HandleCheckFavorites)

		pr.Get("/recently-viewed", h.ServeRecentlyViewed)
		pr.Post("/recently-viewed", h.HandleRecordView)
		pr.Delete("/recently-viewed", h.HandleRemoveView)
		pr.Post("/recently-viewed/check", h.HandleCheckRecentlyViewed)
	})

	return r
}
