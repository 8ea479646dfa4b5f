// internal/app/lifecycle/policylife/renew.go
package policylife

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RenewInput describes the contract that replaces an expiring policy.
type RenewInput struct {
	RenewalDate    time.Time
	NewPremium     float64
	NewFranchise   float64
	AddCoverage    []string
	RemoveCoverage []string
	Notes          string // appended to the successor's "Renewal of policy" note
}

func (in RenewInput) check() []apperr.FieldError {
	var errs []apperr.FieldError
	if in.RenewalDate.IsZero() {
		errs = append(errs, apperr.FieldError{Field: "renewalDate", Message: "Renewal date is required."})
	}
	if in.NewPremium <= 0 {
		errs = append(errs, apperr.FieldError{Field: "newPremium", Message: "Premium must be greater than 0."})
	}
	if in.NewFranchise < 0 {
		errs = append(errs, apperr.FieldError{Field: "newFranchise", Message: "Franchise cannot be negative."})
	}
	unknown := lo.Uniq(lo.Without(append(append([]string{}, in.AddCoverage...), in.RemoveCoverage...), models.CoverageNames...))
	for _, name := range unknown {
		errs = append(errs, apperr.FieldError{Field: "coverageChanges", Message: "Unknown coverage option: " + name})
	}
	return errs
}

// renewal derives the Pending successor of src.
func renewal(src models.Policy, in RenewInput, now time.Time) models.Policy {
	cov := src.Coverage
	for _, name := range in.AddCoverage {
		cov.Set(name, true)
	}
	for _, name := range in.RemoveCoverage {
		cov.Set(name, false)
	}
	cov.Enforce()

	var agent *models.Agent
	if src.Agent != nil {
		a := *src.Agent
		agent = &a
	}
	return models.Policy{
		UserID:   src.UserID,
		Type:     src.Type,
		Vehicle:  src.Vehicle,
		Coverage: cov,
		Dates: models.PolicyDates{
			StartDate:   src.Dates.EndDate,
			EndDate:     in.RenewalDate,
			RenewalDate: in.RenewalDate,
		},
		Financial: models.Financial{
			Premium:   in.NewPremium,
			Franchise: in.NewFranchise,
			Taxes:     src.Financial.Taxes,
		},
		Status:    models.PolicyPending,
		Notes:     strings.TrimSpace("Renewal of policy " + src.PolicyNumber + ". " + in.Notes),
		Agent:     agent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Renew creates the Pending successor of an Active or Expired policy and
// marks the source Expired. Both writes share a transaction. Without
// transaction support the new policy is removed again if the source cannot
// be expired; inside one the server rolls it back.
func (e *Engine) Renew(ctx context.Context, owner, id primitive.ObjectID, in RenewInput) (View, error) {
	if errs := in.check(); len(errs) > 0 {
		return View{}, apperr.Validation("Invalid renewal", errs...)
	}

	src, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return View{}, fail(CodeRenewalFailed, err)
	}
	if !src.Status.Renewable() {
		return View{}, apperr.Conflict(CodeRenewalNotEligible, "Only active or expired policies can be renewed")
	}
	if !in.RenewalDate.After(src.Dates.EndDate) {
		return View{}, apperr.Validation("Invalid renewal", apperr.FieldError{
			Field:   "renewalDate",
			Message: "Renewal date must be after the current end date.",
		})
	}

	now := e.now()
	from := src.Status
	var created models.Policy

	err = e.Tx.Run(ctx, func(ctx context.Context, inTx bool) error {
		var err error
		created, err = e.insert(ctx, renewal(src, in, now))
		if err != nil {
			return err
		}

		expired := src
		expired.Status = models.PolicyExpired
		expired.Notes = appendLine(src.Notes, "Renewed by policy "+created.PolicyNumber)
		expired.UpdatedAt = now
		if err := e.Store.Replace(ctx, expired); err != nil {
			if inTx {
				return err
			}
			if derr := e.Store.Delete(ctx, created.ID, owner); derr != nil {
				e.Log.Error("renewal left an orphan policy",
					zap.String("source", src.PolicyNumber),
					zap.String("orphan", created.PolicyNumber),
					zap.Error(derr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return View{}, fail(CodeRenewalFailed, err)
	}

	e.Metrics.PolicyTransition(opRenew, from, models.PolicyExpired)
	e.Metrics.PolicyTransition(opCreate, "", created.Status)
	src.Status = models.PolicyExpired
	e.Audit.Policy(ctx, audit.EventPolicyExpired, src, map[string]string{"renewed_by": created.PolicyNumber})
	e.Audit.Policy(ctx, audit.EventPolicyRenewed, created, map[string]string{"source": src.PolicyNumber})
	return e.view(created), nil
}
