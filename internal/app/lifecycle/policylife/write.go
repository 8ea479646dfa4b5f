// internal/app/lifecycle/policylife/write.go
package policylife

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateInput is a new policy as accepted from a client. Shape rules
// (vehicle fields, lengths) are checked at the boundary; the engine checks
// the lifecycle preconditions.
type CreateInput struct {
	PolicyNumber string // assigned when empty
	Type         models.PolicyType
	Vehicle      models.Vehicle
	Coverage     models.Coverage
	Dates        models.PolicyDates
	Financial    models.Financial
	Documents    []models.PolicyDocument
	Notes        string
	Agent        *models.Agent
}

func checkDates(d models.PolicyDates) []apperr.FieldError {
	var errs []apperr.FieldError
	if !d.StartDate.Before(d.EndDate) {
		errs = append(errs, apperr.FieldError{Field: "dates.endDate", Message: "End date must be after start date."})
	}
	if d.RenewalDate.Before(d.EndDate) {
		errs = append(errs, apperr.FieldError{Field: "dates.renewalDate", Message: "Renewal date must be on or after end date."})
	}
	return errs
}

func checkFinancial(f models.Financial) []apperr.FieldError {
	var errs []apperr.FieldError
	if f.Premium <= 0 {
		errs = append(errs, apperr.FieldError{Field: "financial.premium", Message: "Premium must be greater than 0."})
	}
	if f.Franchise < 0 {
		errs = append(errs, apperr.FieldError{Field: "financial.franchise", Message: "Franchise cannot be negative."})
	}
	if f.Taxes < 0 {
		errs = append(errs, apperr.FieldError{Field: "financial.taxes", Message: "Taxes cannot be negative."})
	}
	return errs
}

// Create stores a new Draft policy for owner.
func (e *Engine) Create(ctx context.Context, owner primitive.ObjectID, in CreateInput) (View, error) {
	var errs []apperr.FieldError
	if !in.Type.Valid() {
		errs = append(errs, apperr.FieldError{Field: "type", Message: "Type must be one of Auto, Moto, Commercial, Home."})
	}
	errs = append(errs, checkDates(in.Dates)...)
	errs = append(errs, checkFinancial(in.Financial)...)
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid policy", errs...)
	}

	now := e.now()
	p := models.Policy{
		PolicyNumber: in.PolicyNumber,
		UserID:       owner,
		Type:         in.Type,
		Vehicle:      in.Vehicle,
		Coverage:     in.Coverage,
		Dates:        in.Dates,
		Financial:    in.Financial,
		Status:       models.PolicyDraft,
		Documents:    in.Documents,
		Notes:        in.Notes,
		Agent:        in.Agent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.Coverage.Enforce()

	created, err := e.insert(ctx, p)
	if err != nil {
		return View{}, fail(CodeCreationFailed, err)
	}
	e.Metrics.PolicyTransition(opCreate, "", created.Status)
	e.Audit.Policy(ctx, audit.EventPolicyCreated, created, nil)
	return e.view(created), nil
}

// DatesPatch holds optional replacements for the date triple.
type DatesPatch struct {
	StartDate   *time.Time
	EndDate     *time.Time
	RenewalDate *time.Time
}

// FinancialPatch holds optional replacements for the money inputs.
type FinancialPatch struct {
	Premium   *float64
	Franchise *float64
	Taxes     *float64
}

// Patch is a partial policy update. Nil fields are left unchanged.
// Coverage is merged by option name.
type Patch struct {
	Type      *models.PolicyType
	Vehicle   *models.Vehicle
	Coverage  map[string]bool
	Dates     *DatesPatch
	Financial *FinancialPatch
	Status    *models.PolicyStatus
	Notes     *string
	Agent     *models.Agent
}

func (pt Patch) apply(p *models.Policy) []apperr.FieldError {
	var errs []apperr.FieldError
	if pt.Type != nil {
		if !pt.Type.Valid() {
			errs = append(errs, apperr.FieldError{Field: "type", Message: "Type must be one of Auto, Moto, Commercial, Home."})
		}
		p.Type = *pt.Type
	}
	if pt.Vehicle != nil {
		p.Vehicle = *pt.Vehicle
	}
	for name, on := range pt.Coverage {
		if !p.Coverage.Set(name, on) {
			errs = append(errs, apperr.FieldError{Field: "coverage." + name, Message: "Unknown coverage option."})
		}
	}
	if d := pt.Dates; d != nil {
		if d.StartDate != nil {
			p.Dates.StartDate = *d.StartDate
		}
		if d.EndDate != nil {
			p.Dates.EndDate = *d.EndDate
		}
		if d.RenewalDate != nil {
			p.Dates.RenewalDate = *d.RenewalDate
		}
	}
	if f := pt.Financial; f != nil {
		if f.Premium != nil {
			p.Financial.Premium = *f.Premium
		}
		if f.Franchise != nil {
			p.Financial.Franchise = *f.Franchise
		}
		if f.Taxes != nil {
			p.Financial.Taxes = *f.Taxes
		}
	}
	if pt.Status != nil {
		if !pt.Status.Valid() {
			errs = append(errs, apperr.FieldError{Field: "status", Message: "Unknown policy status."})
		}
		p.Status = *pt.Status
	}
	if pt.Notes != nil {
		p.Notes = *pt.Notes
	}
	if pt.Agent != nil {
		p.Agent = pt.Agent
	}
	p.Coverage.Enforce()
	return errs
}

// Update merges patch into one of owner's policies. Any known status may be
// set; the date triple and money inputs are re-checked after the merge.
func (e *Engine) Update(ctx context.Context, owner, id primitive.ObjectID, patch Patch) (View, error) {
	p, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return View{}, fail(CodeUpdateFailed, err)
	}
	from := p.Status

	errs := patch.apply(&p)
	if patch.Dates != nil {
		errs = append(errs, checkDates(p.Dates)...)
	}
	if patch.Financial != nil {
		errs = append(errs, checkFinancial(p.Financial)...)
	}
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid policy update", errs...)
	}

	p.UpdatedAt = e.now()
	if err := e.Store.Replace(ctx, p); err != nil {
		return View{}, fail(CodeUpdateFailed, err)
	}

	details := map[string]string(nil)
	if p.Status != from {
		e.Metrics.PolicyTransition(opUpdate, from, p.Status)
		details = map[string]string{"from": string(from), "to": string(p.Status)}
	}
	e.Audit.Policy(ctx, audit.EventPolicyUpdated, p, details)
	return e.view(p), nil
}

// Cancel moves one of owner's policies to Cancelled and records when (and
// why) on a new line of its notes.
func (e *Engine) Cancel(ctx context.Context, owner, id primitive.ObjectID, reason string) (View, error) {
	p, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return View{}, fail(CodeCancellationFailed, err)
	}
	if !p.Status.Cancellable() {
		return View{}, apperr.Conflict(CodeCancellationBlocked,
			fmt.Sprintf("Cannot cancel a policy that is %s", p.Status))
	}

	now := e.now()
	from := p.Status
	line := "Cancelled on " + now.Format(time.RFC3339)
	if reason != "" {
		line += ": " + reason
	}
	p.Notes = appendLine(p.Notes, line)
	p.Status = models.PolicyCancelled
	p.UpdatedAt = now

	if err := e.Store.Replace(ctx, p); err != nil {
		return View{}, fail(CodeCancellationFailed, err)
	}
	e.Metrics.PolicyTransition(opCancel, from, p.Status)
	e.Audit.Policy(ctx, audit.EventPolicyCancelled, p, map[string]string{"from": string(from), "reason": reason})
	return e.view(p), nil
}

func appendLine(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
