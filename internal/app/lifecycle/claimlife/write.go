// internal/app/lifecycle/claimlife/write.go
package claimlife

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	claimstore "github.com/dalemusser/assurance/internal/app/store/claims"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateInput is a new claim as accepted from a client. Field shapes
// (time format, description length, contact formats) are checked at the
// boundary.
type CreateInput struct {
	ClaimNumber string // assigned when empty
	PolicyID    primitive.ObjectID
	Type        models.ClaimType
	Incident    models.Incident
	Damages     models.Damages
	Priority    models.Priority // defaults to Medium
}

func checkLines(lines []models.DamageLine) []apperr.FieldError {
	var errs []apperr.FieldError
	if len(lines) < models.MinDamageLines || len(lines) > models.MaxDamageLines {
		errs = append(errs, apperr.FieldError{
			Field:   "damages.details",
			Message: fmt.Sprintf("Damages must list between %d and %d items.", models.MinDamageLines, models.MaxDamageLines),
		})
	}
	for i, l := range lines {
		field := fmt.Sprintf("damages.details[%d]", i)
		if l.EstimatedCost <= 0 {
			errs = append(errs, apperr.FieldError{Field: field + ".estimatedCost", Message: "Estimated cost must be greater than 0."})
		}
		if l.ActualCost != nil && *l.ActualCost < 0 {
			errs = append(errs, apperr.FieldError{Field: field + ".actualCost", Message: "Actual cost cannot be negative."})
		}
		if l.Status != "" && !l.Status.Valid() {
			errs = append(errs, apperr.FieldError{Field: field + ".status", Message: "Status must be Pending, Approved, Rejected or Completed."})
		}
	}
	return errs
}

func checkDamages(d models.Damages) []apperr.FieldError {
	var errs []apperr.FieldError
	if d.EstimatedAmount <= 0 {
		errs = append(errs, apperr.FieldError{Field: "damages.estimatedAmount", Message: "Estimated amount must be greater than 0."})
	}
	if d.ActualAmount != nil && *d.ActualAmount < 0 {
		errs = append(errs, apperr.FieldError{Field: "damages.actualAmount", Message: "Actual amount cannot be negative."})
	}
	return append(errs, checkLines(d.Details)...)
}

func checkIncident(in models.Incident) []apperr.FieldError {
	if len(in.Witnesses) > models.MaxWitnesses {
		return []apperr.FieldError{{
			Field:   "incident.witnesses",
			Message: fmt.Sprintf("At most %d witnesses are allowed.", models.MaxWitnesses),
		}}
	}
	return nil
}

func normalizeDamages(d *models.Damages) {
	d.Currency = models.ClaimCurrency
	for i := range d.Details {
		if d.Details[i].Status == "" {
			d.Details[i].Status = models.LinePending
		}
	}
}

// Create files a new Draft claim for owner against one of owner's policies.
func (e *Engine) Create(ctx context.Context, owner primitive.ObjectID, in CreateInput) (View, error) {
	var errs []apperr.FieldError
	if !in.Type.Valid() {
		errs = append(errs, apperr.FieldError{Field: "type", Message: "Unknown claim type."})
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		errs = append(errs, apperr.FieldError{Field: "priority", Message: "Priority must be Low, Medium, High or Urgent."})
	}
	errs = append(errs, checkIncident(in.Incident)...)
	errs = append(errs, checkDamages(in.Damages)...)
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid claim", errs...)
	}

	if _, err := e.Policies.Get(ctx, in.PolicyID, owner); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, apperr.NotFound(CodePolicyNotFound, "Policy not found")
		}
		return View{}, apperr.Internal(CodeCreationFailed, err)
	}

	now := e.now()
	c := models.Claim{
		ClaimNumber: in.ClaimNumber,
		UserID:      owner,
		PolicyID:    in.PolicyID,
		Type:        in.Type,
		Incident:    in.Incident,
		Damages:     in.Damages,
		Status:      models.ClaimDraft,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	normalizeDamages(&c.Damages)
	c.AddTimelineEntry(now, models.ClaimDraft, "Claim created", models.ActorUser, nil, false)

	created, err := e.insert(ctx, c)
	if err != nil {
		return View{}, fail(CodeCreationFailed, err)
	}
	e.Metrics.ClaimTransition(created.Status, models.ActorUser)
	e.Audit.Claim(ctx, audit.EventClaimCreated, created, map[string]string{"policy_id": created.PolicyID.Hex()})
	return e.view(created), nil
}

// LocationPatch holds optional replacements for the incident location.
type LocationPatch struct {
	Address     *string
	City        *string
	Coordinates *models.Coordinates
}

// IncidentPatch holds optional replacements for incident fields.
type IncidentPatch struct {
	Date        *time.Time
	Time        *string
	Location    *LocationPatch
	Description *string
	Witnesses   []models.Witness // replaces the list when non-nil
}

// LinePatch is a positional update of one damage line.
type LinePatch struct {
	Item          *string
	Description   *string
	EstimatedCost *float64
	ActualCost    *float64
	Status        *models.LineStatus
}

// DamagesPatch holds optional replacements for the damages record. Details
// are merged by position; entries past the current end are appended.
type DamagesPatch struct {
	EstimatedAmount *float64
	ActualAmount    *float64
	Details         []LinePatch
}

// Patch is a partial claim update. Nil fields are left unchanged.
type Patch struct {
	Incident *IncidentPatch
	Damages  *DamagesPatch
	Priority *models.Priority
	Status   *models.ClaimStatus
	Notes    *string
}

func (ip *IncidentPatch) apply(in *models.Incident) {
	if ip.Date != nil {
		in.Date = *ip.Date
	}
	if ip.Time != nil {
		in.Time = *ip.Time
	}
	if lp := ip.Location; lp != nil {
		if lp.Address != nil {
			in.Location.Address = *lp.Address
		}
		if lp.City != nil {
			in.Location.City = *lp.City
		}
		if lp.Coordinates != nil {
			in.Location.Coordinates = lp.Coordinates
		}
	}
	if ip.Description != nil {
		in.Description = *ip.Description
	}
	if ip.Witnesses != nil {
		in.Witnesses = ip.Witnesses
	}
}

func (lp LinePatch) apply(l *models.DamageLine) {
	if lp.Item != nil {
		l.Item = *lp.Item
	}
	if lp.Description != nil {
		l.Description = *lp.Description
	}
	if lp.EstimatedCost != nil {
		l.EstimatedCost = *lp.EstimatedCost
	}
	if lp.ActualCost != nil {
		l.ActualCost = lp.ActualCost
	}
	if lp.Status != nil {
		l.Status = *lp.Status
	}
}

func (dp *DamagesPatch) apply(d *models.Damages) {
	if dp.EstimatedAmount != nil {
		d.EstimatedAmount = *dp.EstimatedAmount
	}
	if dp.ActualAmount != nil {
		d.ActualAmount = dp.ActualAmount
	}
	d.Details = append([]models.DamageLine(nil), d.Details...)
	for i, lp := range dp.Details {
		if i >= len(d.Details) {
			d.Details = append(d.Details, models.DamageLine{})
		}
		lp.apply(&d.Details[i])
	}
	normalizeDamages(d)
}

// Update merges patch into one of owner's claims. A status that differs
// from the current one is recorded as a timeline entry by the user. Line
// statuses are independent of the claim status.
func (e *Engine) Update(ctx context.Context, owner, id primitive.ObjectID, patch Patch) (View, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return View{}, invalidStatus(*patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return View{}, apperr.Validation("Invalid claim update",
			apperr.FieldError{Field: "priority", Message: "Priority must be Low, Medium, High or Urgent."})
	}

	return e.retryTimeline(func() (View, error) {
		return e.update(ctx, owner, id, patch)
	})
}

// update is one read-merge-write pass of Update. Only the fields patch
// touches are written.
func (e *Engine) update(ctx context.Context, owner, id primitive.ObjectID, patch Patch) (View, error) {
	c, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return View{}, fail(CodeUpdateFailed, err)
	}

	var ch claimstore.Changes
	var errs []apperr.FieldError
	if patch.Incident != nil {
		patch.Incident.apply(&c.Incident)
		errs = append(errs, checkIncident(c.Incident)...)
		ch.Incident = &c.Incident
	}
	if patch.Damages != nil {
		patch.Damages.apply(&c.Damages)
		errs = append(errs, checkDamages(c.Damages)...)
		ch.Damages = &c.Damages
	}
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid claim update", errs...)
	}
	if patch.Priority != nil {
		ch.Priority = patch.Priority
	}
	if patch.Notes != nil {
		ch.Note = *patch.Notes
	}

	now := e.now()
	from := c.Status
	if patch.Status != nil && *patch.Status != c.Status {
		ch.Seen = len(c.Timeline)
		te := c.AddTimelineEntry(now, *patch.Status,
			fmt.Sprintf("Status updated to %s", *patch.Status), models.ActorUser, nil, false)
		ch.Entry = &te
	}

	updated, err := e.Store.Apply(ctx, id, owner, ch, now)
	if errors.Is(err, claimstore.ErrTimelineMoved) {
		return View{}, err
	}
	if err != nil {
		return View{}, fail(CodeUpdateFailed, err)
	}
	e.Audit.Claim(ctx, audit.EventClaimUpdated, updated, nil)
	if ch.Entry != nil {
		e.recordTransition(ctx, updated, from, *ch.Entry)
	}
	return e.view(updated), nil
}
