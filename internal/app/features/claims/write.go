// internal/app/features/claims/write.go
package claims

import (
	"net/http"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
)

// HandleCreate handles POST /api/claims. The referenced policy must belong
// to the caller.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claim create")
	defer cancel()

	v, err := h.Engine.Create(ctx, owner, req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, claimResponse{Message: "Claim created successfully", Claim: v})
}

// HandleUpdate handles PUT /api/claims/{id}.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claim update")
	defer cancel()

	v, err := h.Engine.Update(ctx, owner, id, req.patch())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, claimResponse{Message: "Claim updated successfully", Claim: v})
}

// HandleTimeline handles POST /api/claims/{id}/timeline, the only route
// that moves a claim to an arbitrary status.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
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
	var req timelineRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "claim timeline")
	defer cancel()

	v, err := h.Engine.AddTimelineEntry(ctx, owner, id, req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, claimResponse{Message: "Timeline updated successfully", Claim: v})
}
