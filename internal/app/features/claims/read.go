// internal/app/features/claims/read.go
package claims

import (
	"net/http"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	claimstore "github.com/dalemusser/assurance/internal/app/store/claims"
	"github.com/dalemusser/assurance/internal/app/system/paging"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/samber/lo"
)

var (
	typeNames     = lo.Map(models.ClaimTypes, func(t models.ClaimType, _ int) string { return string(t) })
	statusNames   = lo.Map(models.ClaimStatuses, func(s models.ClaimStatus, _ int) string { return string(s) })
	priorityNames = lo.Map(models.Priorities, func(p models.Priority, _ int) string { return string(p) })
)

func parseFilter(r *http.Request) (claimstore.Filter, error) {
	q := shared.NewFilters(r)
	f := claimstore.Filter{
		Type:      models.ClaimType(q.OneOf("type", typeNames...)),
		Status:    models.ClaimStatus(q.OneOf("status", statusNames...)),
		Priority:  models.Priority(q.OneOf("priority", priorityNames...)),
		PolicyID:  q.ObjectID("policyId"),
		From:      q.Date("startDate"),
		To:        q.Date("endDate"),
		MinAmount: q.Float("minAmount"),
		MaxAmount: q.Float("maxAmount"),
		Search:    q.String("search"),
	}
	return f, q.Err()
}

// ServeList handles GET /api/claims.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	pg, err := paging.Parse(r, claimstore.SortFields, claimstore.DefaultSort)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claim list")
	defer cancel()

	res, err := h.Engine.List(ctx, owner, f, pg)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// ServeGet handles GET /api/claims/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "claim get")
	defer cancel()

	v, err := h.Engine.Get(ctx, owner, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

// ServeStats handles GET /api/claims/stats/summary.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "claim stats")
	defer cancel()

	stats, err := h.Engine.Stats(ctx, owner)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
