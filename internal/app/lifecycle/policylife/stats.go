// internal/app/lifecycle/policylife/stats.go
package policylife

import (
	"context"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stats summarizes owner's portfolio.
func (e *Engine) Stats(ctx context.Context, owner primitive.ObjectID) (models.PolicyStats, error) {
	rows, err := e.Store.StatRows(ctx, owner)
	if err != nil {
		return models.PolicyStats{}, apperr.Internal(CodeStatsFailed, err)
	}
	return summarize(rows), nil
}

func summarize(rows []models.PolicyStatRow) models.PolicyStats {
	type acc struct {
		count   int
		premium decimal.Decimal
	}
	var premium, franchise decimal.Decimal
	active := 0
	byType := map[models.PolicyType]*acc{}

	for _, r := range rows {
		p := decimal.NewFromFloat(r.Premium)
		premium = premium.Add(p)
		franchise = franchise.Add(decimal.NewFromFloat(r.Franchise))
		if r.Status == models.PolicyActive {
			active++
		}
		a, ok := byType[r.Type]
		if !ok {
			a = &acc{}
			byType[r.Type] = a
		}
		a.count++
		a.premium = a.premium.Add(p)
	}

	s := models.PolicyStats{
		TotalPolicies:  len(rows),
		ActivePolicies: active,
		TotalPremium:   premium.InexactFloat64(),
		TotalFranchise: franchise.InexactFloat64(),
		TypeBreakdown:  make(map[models.PolicyType]models.PolicyTypeStats, len(byType)),
	}
	if len(rows) > 0 {
		s.AveragePremium = premium.Div(decimal.NewFromInt(int64(len(rows)))).Round(2).InexactFloat64()
	}
	for t, a := range byType {
		s.TypeBreakdown[t] = models.PolicyTypeStats{Count: a.count, TotalPremium: a.premium.InexactFloat64()}
	}
	return s
}
