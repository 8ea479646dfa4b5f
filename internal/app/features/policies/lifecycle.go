// internal/app/features/policies/lifecycle.go
package policies

import (
	"net/http"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
)

// HandleRenew handles POST /api/policies/{id}/renew and answers with the
// new Pending policy.
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
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
	var req renewRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "policy renew")
	defer cancel()

	v, err := h.Engine.Renew(ctx, owner, id, req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, policyResponse{Message: "Policy renewed successfully", Policy: v})
}

// HandleCancel handles POST /api/policies/{id}/cancel. The body is
// optional and may carry a reason.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
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
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := shared.Decode(w, r, &req); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "policy cancel")
	defer cancel()

	v, err := h.Engine.Cancel(ctx, owner, id, htmlsanitize.PlainText(req.Reason))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, policyResponse{Message: "Policy cancelled successfully", Policy: v})
}
