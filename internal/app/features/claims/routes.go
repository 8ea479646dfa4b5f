// internal/app/features/claims/routes.go
package claims

import (
	"github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/claims. Claims are scoped to
// the signed-in user like policies.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.Require)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/stats/summary", h.ServeStats)

	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Post("/{id}/timeline", h.HandleTimeline)
	r.Post("/{id}/documents", h.HandleDocument)
	r.Post("/{id}/communications", h.HandleCommunication)
	r.Post("/{id}/notes", h.HandleNote)
	r.Put("/{id}/settlement", h.HandleSettlement)

	return r
}
