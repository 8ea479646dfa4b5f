// internal/app/features/policies/read.go
package policies

import (
	"net/http"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	policystore "github.com/dalemusser/assurance/internal/app/store/policies"
	"github.com/dalemusser/assurance/internal/app/system/paging"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/samber/lo"
)

var (
	typeNames   = lo.Map(models.PolicyTypes, func(t models.PolicyType, _ int) string { return string(t) })
	statusNames = lo.Map(models.PolicyStatuses, func(s models.PolicyStatus, _ int) string { return string(s) })
)

func parseFilter(r *http.Request) (policystore.Filter, error) {
	q := shared.NewFilters(r)
	f := policystore.Filter{
		Type:       models.PolicyType(q.OneOf("type", typeNames...)),
		Status:     models.PolicyStatus(q.OneOf("status", statusNames...)),
		StartFrom:  q.Date("startDate"),
		EndBefore:  q.Date("endDate"),
		MinPremium: q.Float("minPremium"),
		MaxPremium: q.Float("maxPremium"),
		Search:     q.String("search"),
	}
	return f, q.Err()
}

// ServeList handles GET /api/policies.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	pg, err := paging.Parse(r, policystore.SortFields, policystore.DefaultSort)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "policy list")
	defer cancel()

	res, err := h.Engine.List(ctx, owner, f, pg)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// ServeGet handles GET /api/policies/{id}.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "policy get")
	defer cancel()

	v, err := h.Engine.Get(ctx, owner, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

// ServeStats handles GET /api/policies/stats/summary.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "policy stats")
	defer cancel()

	stats, err := h.Engine.Stats(ctx, owner)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
