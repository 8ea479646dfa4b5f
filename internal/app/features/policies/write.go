// internal/app/features/policies/write.go
package policies

import (
	"net/http"
	"time"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
)

// HandleCreate handles POST /api/policies.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req createRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in, errs := req.input(time.Now().UTC())
	if err := shared.Invalid(errs); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "policy create")
	defer cancel()

	v, err := h.Engine.Create(ctx, owner, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, policyResponse{Message: "Policy created successfully", Policy: v})
}

// HandleUpdate handles PUT /api/policies/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := shared.PathID(r, errNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req updateRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	patch, errs := req.patch(time.Now().UTC())
	if err := shared.Invalid(errs); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "policy update")
	defer cancel()

	v, err := h.Engine.Update(ctx, owner, id, patch)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, policyResponse{Message: "Policy updated successfully", Policy: v})
}

// HandleDelete handles DELETE /api/policies/{id}. Active policies must be
// cancelled first.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := shared.PathID(r, errNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "policy delete")
	defer cancel()

	if err := h.Engine.Delete(ctx, owner, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Policy deleted successfully"})
}
