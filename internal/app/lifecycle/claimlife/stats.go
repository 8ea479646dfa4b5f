// internal/app/lifecycle/claimlife/stats.go
package claimlife

import (
	"context"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stats summarizes owner's claims.
func (e *Engine) Stats(ctx context.Context, owner primitive.ObjectID) (models.ClaimStats, error) {
	rows, err := e.Store.StatRows(ctx, owner)
	if err != nil {
		return models.ClaimStats{}, apperr.Internal(CodeStatsFailed, err)
	}
	return summarize(rows), nil
}

func summarize(rows []models.ClaimStatRow) models.ClaimStats {
	var estimated, actual decimal.Decimal
	for _, r := range rows {
		estimated = estimated.Add(decimal.NewFromFloat(r.EstimatedAmount))
		actual = actual.Add(decimal.NewFromFloat(r.ActualAmount))
	}
	if rows == nil {
		rows = []models.ClaimStatRow{}
	}
	s := models.ClaimStats{
		TotalClaims:          len(rows),
		ClaimsByStatus:       rows,
		TotalEstimatedAmount: estimated.InexactFloat64(),
		TotalActualAmount:    actual.InexactFloat64(),
	}
	if len(rows) > 0 {
		s.AverageEstimatedAmount = estimated.Div(decimal.NewFromInt(int64(len(rows)))).Round(2).InexactFloat64()
	}
	return s
}
