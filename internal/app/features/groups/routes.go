// internal/app/features/groups/routes.go
package groups

import (
	"net/http"

	"github.com/dalemusser/busybee/internal/app/policy/grouppolicy"
	"github.com/dalemusser/busybee/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Mount attaches a group-scoped router beneath /{groupId}.
type Mount struct {
	Pattern string
	Handler http.Handler
}

// Routes is mounted under /api/groups. Everything beneath /{groupId},
// including the mounts, requires membership; joining does not.
func Routes(h *Handler, sm *auth.SessionManager, mounts ...Mount) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMyGroups)
		pr.Post("/", h.HandleCreateGroup)
		pr.Post("/{groupId}/join", h.HandleJoin)

		pr.Route("/{groupId}", func(gr chi.Router) {
			gr.Use(grouppolicy.RequireMember(h.Groups, h.Log, "groupId"))

			gr.Get("/", h.ServeGroup)
			gr.Post("/leave", h.HandleLeave)

			for _, m := range mounts {
				gr.Mount(m.Pattern, m.Handler)
			}
		})
	})

	return r
}
