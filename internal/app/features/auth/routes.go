// internal/app/features/auth/routes.go
package auth

import (
	sysauth "github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/auth. Register, login and
// refresh are public; the rest need an access token.
func Routes(h *Handler, gate *sysauth.Gate) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/refresh", h.HandleRefresh)

	r.Group(func(pr chi.Router) {
		pr.Use(gate.Require)
		pr.Post("/logout", h.HandleLogout)
		pr.Get("/profile", h.ServeProfile)
		pr.Put("/profile", h.HandleProfile)
	})

	return r
}
