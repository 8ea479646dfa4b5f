// internal/app/features/claims/attach.go
package claims

import (
	"net/http"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
)

// HandleDocument handles POST /api/claims/{id}/documents. Only metadata is
// recorded; file bytes are stored elsewhere.
func (h *Handler) HandleDocument(w http.ResponseWriter, r *http.Request) {
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
	var req documentRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "claim document")
	defer cancel()

	v, err := h.Engine.AddDocument(ctx, owner, id, req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, claimResponse{Message: "Document added successfully", Claim: v})
}

// HandleCommunication handles POST /api/claims/{id}/communications.
func (h *Handler) HandleCommunication(w http.ResponseWriter, r *http.Request) {
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
	var req communicationRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "claim communication")
	defer cancel()

	v, err := h.Engine.AddCommunication(ctx, owner, id, req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, claimResponse{Message: "Communication added successfully", Claim: v})
}

// HandleNote handles POST /api/claims/{id}/notes.
func (h *Handler) HandleNote(w http.ResponseWriter, r *http.Request) {
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
	var req noteRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "claim note")
	defer cancel()

	v, err := h.Engine.AddNote(ctx, owner, id, req.bucket(), htmlsanitize.PlainText(req.Note))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, claimResponse{Message: "Note added successfully", Claim: v})
}

// HandleSettlement handles PUT /api/claims/{id}/settlement.
func (h *Handler) HandleSettlement(w http.ResponseWriter, r *http.Request) {
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
	var req settlementRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "claim settlement")
	defer cancel()

	v, err := h.Engine.SetSettlement(ctx, owner, id, req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, claimResponse{Message: "Settlement updated successfully", Claim: v})
}
