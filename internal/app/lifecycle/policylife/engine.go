// internal/app/lifecycle/policylife/engine.go
//
// Package policylife owns the policy lifecycle: creation with number
// assignment, permissive updates, guarded delete, renewal and cancellation,
// and the per-owner stats summary. Every read and write is scoped to the
// owning user.
package policylife

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	policystore "github.com/dalemusser/assurance/internal/app/store/policies"
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
	CodeNotFound            = "POLICY_NOT_FOUND"
	CodeFetchFailed         = "POLICY_FETCH_FAILED"
	CodeCreationFailed      = "POLICY_CREATION_FAILED"
	CodeUpdateFailed        = "POLICY_UPDATE_FAILED"
	CodeDeletionFailed      = "POLICY_DELETION_FAILED"
	CodeRenewalFailed       = "POLICY_RENEWAL_FAILED"
	CodeCancellationFailed  = "POLICY_CANCELLATION_FAILED"
	CodeStatsFailed         = "POLICY_STATS_FETCH_FAILED"
	CodeActiveDelete        = "ACTIVE_POLICY_DELETE_FORBIDDEN"
	CodeRenewalNotEligible  = "POLICY_RENEWAL_NOT_ELIGIBLE"
	CodeCancellationBlocked = "POLICY_CANCELLATION_NOT_ALLOWED"
)

// Operation labels used for metrics.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
	opRenew  = "renew"
	opCancel = "cancel"
)

// numberAttempts bounds regeneration after a policy number collision.
const numberAttempts = 3

// Store is the persistence the engine needs. *policystore.Store satisfies it.
type Store interface {
	Create(ctx context.Context, p models.Policy) (models.Policy, error)
	Get(ctx context.Context, id, owner primitive.ObjectID) (models.Policy, error)
	List(ctx context.Context, owner primitive.ObjectID, f policystore.Filter, pg paging.Params) ([]models.Policy, int64, error)
	Replace(ctx context.Context, p models.Policy) error
	Delete(ctx context.Context, id, owner primitive.ObjectID) error
	StatRows(ctx context.Context, owner primitive.ObjectID) ([]models.PolicyStatRow, error)
}

// TxRunner runs fn atomically when the database allows it and tells fn
// whether it did. txn.Runner satisfies it.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, inTx bool) error) error
}

// Engine applies policy lifecycle rules.
type Engine struct {
	Store   Store
	Tx      TxRunner
	Numbers numbering.Generator
	Audit   *auditlog.Logger
	Metrics *metrics.Recorder
	Log     *zap.Logger
	Now     func() time.Time
}

// New constructs an Engine with the default number generator and clock.
func New(store Store, tx TxRunner, auditLog *auditlog.Logger, rec *metrics.Recorder, log *zap.Logger) *Engine {
	return &Engine{
		Store:   store,
		Tx:      tx,
		Audit:   auditLog,
		Metrics: rec,
		Log:     log,
		Now:     time.Now,
	}
}

// View is a policy with its read-only derived fields filled in.
type View struct {
	models.Policy
	Duration         int `json:"duration"`
	DaysUntilRenewal int `json:"daysUntilRenewal"`
}

func (e *Engine) view(p models.Policy) View {
	p.Financial.Recompute()
	if p.Documents == nil {
		p.Documents = []models.PolicyDocument{}
	}
	return View{
		Policy:           p,
		Duration:         p.Duration(),
		DaysUntilRenewal: p.DaysUntilRenewal(e.Now()),
	}
}

// now is the write timestamp; Mongo keeps millisecond precision.
func (e *Engine) now() time.Time {
	return e.Now().UTC().Truncate(time.Millisecond)
}

// fail converts a store error to a typed error. Typed errors pass through.
func fail(code string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(CodeNotFound, "Policy not found")
	}
	return apperr.Internal(code, err)
}

// ListResult is one page of policies.
type ListResult struct {
	Policies   []View            `json:"policies"`
	Pagination paging.Pagination `json:"pagination"`
}

// List returns one page of owner's policies matching f.
func (e *Engine) List(ctx context.Context, owner primitive.ObjectID, f policystore.Filter, pg paging.Params) (ListResult, error) {
	items, total, err := e.Store.List(ctx, owner, f, pg)
	if err != nil {
		return ListResult{}, apperr.Internal(CodeFetchFailed, err)
	}
	out := make([]View, 0, len(items))
	for _, p := range items {
		out = append(out, e.view(p))
	}
	return ListResult{Policies: out, Pagination: paging.Build(pg, total)}, nil
}

// Get returns one of owner's policies.
func (e *Engine) Get(ctx context.Context, owner, id primitive.ObjectID) (View, error) {
	p, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return View{}, fail(CodeFetchFailed, err)
	}
	return e.view(p), nil
}

// insert stores p, drawing a fresh number when p has none. A collision on a
// drawn number is retried; a caller-supplied number is never replaced.
func (e *Engine) insert(ctx context.Context, p models.Policy) (models.Policy, error) {
	generated := p.PolicyNumber == ""
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		if generated {
			p.PolicyNumber, err = e.Numbers.Next(numbering.PolicyPrefix, p.CreatedAt.Year())
			if err != nil {
				return models.Policy{}, err
			}
		}
		var created models.Policy
		created, err = e.Store.Create(ctx, p)
		if err == nil {
			return created, nil
		}
		if !generated || !errors.Is(err, policystore.ErrDuplicateNumber) {
			return models.Policy{}, err
		}
		e.Log.Warn("policy number collision; drawing again",
			zap.String("policy_number", p.PolicyNumber),
			zap.Int("attempt", attempt+1))
	}
	return models.Policy{}, err
}

// Delete removes one of owner's policies unless it is Active.
func (e *Engine) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	p, err := e.Store.Get(ctx, id, owner)
	if err != nil {
		return fail(CodeDeletionFailed, err)
	}
	if p.Status == models.PolicyActive {
		return apperr.Conflict(CodeActiveDelete, "Cannot delete an active policy. Please cancel it first.")
	}
	if err := e.Store.Delete(ctx, id, owner); err != nil {
		return fail(CodeDeletionFailed, err)
	}
	e.Metrics.PolicyTransition(opDelete, p.Status, "")
	e.Audit.Policy(ctx, audit.EventPolicyDeleted, p, map[string]string{"status": string(p.Status)})
	return nil
}
