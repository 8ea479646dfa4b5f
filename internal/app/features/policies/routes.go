// internal/app/features/policies/routes.go
package policies

import (
	"github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/policies. Every route requires
// a valid access token and only sees the caller's own policies.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.Require)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/stats/summary", h.ServeStats)

	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/renew", h.HandleRenew)
	r.Post("/{id}/cancel", h.HandleCancel)

	return r
}
