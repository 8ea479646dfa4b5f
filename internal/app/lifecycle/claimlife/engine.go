// internal/app/lifecycle/claimlife/engine.go
//
// Package claimlife owns the claim lifecycle. A claim's status only ever
// changes by appending a timeline entry, so the timeline is the claim's
// audit trail and its last entry always carries the current status.
package claimlife

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	claimstore "github.com/dalemusser/assurance/internal/app/store/claims"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/auditlog"
	"github.com/dalemusser/assurance/internal/app/system/metrics"
	"github.com/dalemusser/assurance/internal/app/system/numbering"
	"github.com/dalemusser/assurance/internal/app/system/paging"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error codes.
const (
	CodeNotFound            = "CLAIM_NOT_FOUND"
	CodePolicyNotFound      = "POLICY_NOT_FOUND"
	CodeFetchFailed         = "CLAIM_FETCH_FAILED"
	CodeCreationFailed      = "CLAIM_CREATION_FAILED"
	CodeUpdateFailed        = "CLAIM_UPDATE_FAILED"
	CodeDocumentFailed      = "CLAIM_DOCUMENT_FAILED"
	CodeCommunicationFailed = "CLAIM_COMMUNICATION_FAILED"
	CodeNoteFailed          = "CLAIM_NOTE_FAILED"
	CodeSettlementFailed    = "CLAIM_SETTLEMENT_FAILED"
	CodeStatsFailed         = "CLAIM_STATS_FETCH_FAILED"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeUpdateConflict      = "CLAIM_UPDATE_CONFLICT"
)

const (
	numberAttempts   = 3
	timelineAttempts = 3
)

// Store is the persistence the engine needs. *claimstore.Store satisfies it.
type Store interface {
	Create(ctx context.Context, c models.Claim) (models.Claim, error)
	Get(ctx context.Context, id, owner primitive.ObjectID) (models.Claim, error)
	List(ctx context.Context, owner primitive.ObjectID, f claimstore.Filter, pg paging.Params) ([]models.Claim, int64, error)
	Apply(ctx context.Context, id, owner primitive.ObjectID, ch claimstore.Changes, now time.Time) (models.Claim, error)
	AppendTimeline(ctx context.Context, id, owner primitive.ObjectID, e models.TimelineEntry, seen int, now time.Time) (models.Claim, error)
	AppendDocument(ctx context.Context, id, owner primitive.ObjectID, d models.ClaimDocument, now time.Time) (models.Claim, error)
	AppendCommunication(ctx context.Context, id, owner primitive.ObjectID, m models.Communication, now time.Time) (models.Claim, error)
	AppendNote(ctx context.Context, id, owner primitive.ObjectID, bucket, text string, now time.Time) (models.Claim, error)
	SetSettlement(ctx context.Context, id, owner primitive.ObjectID, s models.Settlement, now time.Time) (models.Claim, error)
	StatRows(ctx context.Context, owner primitive.ObjectID) ([]models.ClaimStatRow, error)
}

// PolicyLookup resolves the policy a claim is filed against.
// *policystore.Store satisfies it.
type PolicyLookup interface {
	Get(ctx context.Context, id, owner primitive.ObjectID) (models.Policy, error)
}

// Engine applies claim lifecycle rules.
type Engine struct {
	Store    Store
	Policies PolicyLookup
	Numbers  numbering.Generator
	Audit    *auditlog.Logger
	Metrics  *metrics.Recorder
	Log      *zap.Logger
	Now      func() time.Time
}

// New constructs an Engine with the default number generator and clock.
func New(store Store, policies PolicyLookup, auditLog *auditlog.Logger, rec *metrics.Recorder, log *zap.Logger) *Engine {
	return &Engine{
		Store:    store,
		Policies: policies,
		Audit:    auditLog,
		Metrics:  rec,
		Log:      log,
		Now:      time.Now,
	}
}

// View is a claim with its read-only derived fields filled in.
type View struct {
	models.Claim
	AgeInDays           int `json:"ageInDays"`
	DaysSinceLastUpdate int `json:"daysSinceLastUpdate"`
	DocumentsCount      int `json:"documentsCount"`
	CommunicationCount  int `json:"communicationCount"`
}

func (e *Engine) view(c models.Claim) View {
	if c.Timeline == nil {
		c.Timeline = []models.TimelineEntry{}
	}
	if c.Documents == nil {
		c.Documents = []models.ClaimDocument{}
	}
	if c.Communication == nil {
		c.Communication = []models.Communication{}
	}
	if c.Incident.Witnesses == nil {
		c.Incident.Witnesses = []models.Witness{}
	}
	now := e.Now()
	return View{
		Claim:               c,
		AgeInDays:           c.AgeInDays(now),
		DaysSinceLastUpdate: c.DaysSinceLastUpdate(now),
		DocumentsCount:      len(c.Documents),
		CommunicationCount:  len(c.Communication),
	}
}

func (e *Engine) now() time.Time {
	return e.Now().UTC().Truncate(time.Millisecond)
}

func fail(code string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(CodeNotFound, "Claim not found")
	}
	return apperr.Internal(code, err)
}

func invalidStatus(s models.ClaimStatus) error {
	return &apperr.Error{
		Kind:    apperr.KindValidation,
		Code:    CodeInvalidStatus,
		Message: fmt.Sprintf("Unknown claim status %q", s),
	}
}

// ListResult is one page of claims.
type ListResult struct {
	Claims     []View            `json:"claims"`
	Pagination paging.Pagination `json:"pagination"`
}

// List returns one page of owner's claims matching f.
func (e *Engine) List(ctx context.Context, owner primitive.ObjectID, f claimstore.Filter, pg paging.Params) (ListResult, error) {
	items, total, err := e.Store.List(ctx, owner, f, pg)
	if err != nil {
		return ListResult{}, apperr.Internal(CodeFetchFailed, err)
	}
	out := make([]View, 0, len(items))
	for _, c := range items {
		out = append(out, e.view(c))
	}
	return ListResult{Claims: out, Pagination: paging.Build(pg, total)}, nil
}

// Get returns one of owner's claims.
func (e *Engine) Get(ctx context.Context, owner, id primitive.ObjectID) (View, error) {
	c, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return View{}, fail(CodeFetchFailed, err)
	}
	return e.view(c), nil
}

// TimelineInput is one requested status change.
type TimelineInput struct {
	Status      models.ClaimStatus
	Description string
	UpdatedBy   models.ActorKind // defaults to user
	AgentID     *primitive.ObjectID
	Internal    bool
}

// AddTimelineEntry appends a status change to one of owner's claims and
// moves the claim to that status. It is the only operation that changes a
// claim's status on its own.
func (e *Engine) AddTimelineEntry(ctx context.Context, owner, id primitive.ObjectID, in TimelineInput) (View, error) {
	if !in.Status.Valid() {
		return View{}, invalidStatus(in.Status)
	}
	if in.UpdatedBy == "" {
		in.UpdatedBy = models.ActorUser
	}
	if !in.UpdatedBy.Valid() {
		return View{}, apperr.Validation("Invalid timeline entry",
			apperr.FieldError{Field: "updatedBy", Message: "Updated by must be user or agent."})
	}

	return e.retryTimeline(func() (View, error) {
		c, err := e.Store.Get(ctx, id, owner)
		if err != nil {
			return View{}, fail(CodeUpdateFailed, err)
		}
		from := c.Status
		seen := len(c.Timeline)
		now := e.now()
		entry := c.AddTimelineEntry(now, in.Status, in.Description, in.UpdatedBy, in.AgentID, in.Internal)

		updated, err := e.Store.AppendTimeline(ctx, id, owner, entry, seen, now)
		if errors.Is(err, claimstore.ErrTimelineMoved) {
			return View{}, err
		}
		if err != nil {
			return View{}, fail(CodeUpdateFailed, err)
		}
		e.recordTransition(ctx, updated, from, entry)
		return e.view(updated), nil
	})
}

// retryTimeline reruns fn while another request keeps appending to the
// claim's timeline between fn's read and its write.
func (e *Engine) retryTimeline(fn func() (View, error)) (View, error) {
	for attempt := 0; attempt < timelineAttempts; attempt++ {
		v, err := fn()
		if !errors.Is(err, claimstore.ErrTimelineMoved) {
			return v, err
		}
		e.Log.Debug("claim timeline moved; rereading", zap.Int("attempt", attempt+1))
	}
	return View{}, apperr.Conflict(CodeUpdateConflict, "Claim was changed by another request, please retry")
}

func (e *Engine) recordTransition(ctx context.Context, c models.Claim, from models.ClaimStatus, entry models.TimelineEntry) {
	e.Metrics.ClaimTransition(entry.Status, entry.UpdatedBy)
	e.Audit.Claim(ctx, audit.EventClaimStatusChanged, c, map[string]string{
		"from": string(from),
		"to":   string(entry.Status),
		"by":   string(entry.UpdatedBy),
	})
}

// insert stores c, drawing a fresh number when c has none and retrying on
// a collision of a drawn number.
func (e *Engine) insert(ctx context.Context, c models.Claim) (models.Claim, error) {
	generated := c.ClaimNumber == ""
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		if generated {
			c.ClaimNumber, err = e.Numbers.Next(numbering.ClaimPrefix, c.CreatedAt.Year())
			if err != nil {
				return models.Claim{}, err
			}
		}
		var created models.Claim
		created, err = e.Store.Create(ctx, c)
		if err == nil {
			return created, nil
		}
		if !generated || !errors.Is(err, claimstore.ErrDuplicateNumber) {
			return models.Claim{}, err
		}
		e.Log.Warn("claim number collision; drawing again",
			zap.String("claim_number", c.ClaimNumber),
			zap.Int("attempt", attempt+1))
	}
	return models.Claim{}, err
}
