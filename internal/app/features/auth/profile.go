// internal/app/features/auth/profile.go
package auth

import (
	"errors"
	"net/http"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/store/audit"
	userstore "github.com/dalemusser/assurance/internal/app/store/users"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	sysauth "github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/dalemusser/assurance/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

var errUserNotFound = apperr.NotFound(sysauth.CodeUserNotFound, "User not found")

// ServeProfile handles GET /api/auth/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile get")
	defer cancel()

	u, err := h.Users.GetByID(ctx, owner)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeProfileFetchFailed, err))
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// HandleProfile handles PUT /api/auth/profile. Only name, phone and address
// are self-service; a new address replaces the old one.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req profileRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	upd := userstore.ProfileUpdate{Phone: req.Phone}
	if req.Name != nil {
		name := htmlsanitize.PlainText(*req.Name)
		upd.Name = &name
	}
	if req.Address != nil {
		addr := req.Address.address()
		upd.Address = &addr
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile update")
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, owner, upd)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeProfileUpdateFailed, err))
		return
	}
	h.Audit.Auth(ctx, r, audit.EventProfileUpdated, &owner, true, "", nil)
	respond.JSON(w, http.StatusOK, struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}{"Profile updated successfully", u})
}
