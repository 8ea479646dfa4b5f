// internal/app/lifecycle/claimlife/attach.go
package claimlife

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentInput is the metadata of a file attached to a claim. The file
// itself lives elsewhere.
type DocumentInput struct {
	Type         string
	Filename     string
	OriginalName string
	Size         int64
	MimeType     string
	UploadedBy   models.ActorKind // defaults to user
	Description  string
}

// AddDocument appends document metadata to one of owner's claims.
func (e *Engine) AddDocument(ctx context.Context, owner, id primitive.ObjectID, in DocumentInput) (View, error) {
	if in.UploadedBy == "" {
		in.UploadedBy = models.ActorUser
	}
	var errs []apperr.FieldError
	if !lo.Contains(models.ClaimDocumentTypes, in.Type) {
		errs = append(errs, apperr.FieldError{Field: "type", Message: "Type must be one of " + strings.Join(models.ClaimDocumentTypes, ", ") + "."})
	}
	if strings.TrimSpace(in.Filename) == "" {
		errs = append(errs, apperr.FieldError{Field: "filename", Message: "Filename is required."})
	}
	if in.Size < 0 {
		errs = append(errs, apperr.FieldError{Field: "size", Message: "Size cannot be negative."})
	}
	if !in.UploadedBy.Valid() {
		errs = append(errs, apperr.FieldError{Field: "uploadedBy", Message: "Uploaded by must be user or agent."})
	}
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid document", errs...)
	}

	now := e.now()
	doc := models.ClaimDocument{
		ID:           uuid.NewString(),
		Type:         in.Type,
		Filename:     in.Filename,
		OriginalName: in.OriginalName,
		Size:         in.Size,
		MimeType:     in.MimeType,
		UploadedAt:   now,
		UploadedBy:   in.UploadedBy,
		Description:  in.Description,
	}
	c, err := e.Store.AppendDocument(ctx, id, owner, doc, now)
	if err != nil {
		return View{}, fail(CodeDocumentFailed, err)
	}
	e.Audit.Claim(ctx, audit.EventClaimDocument, c, map[string]string{"document_id": doc.ID, "type": doc.Type})
	return e.view(c), nil
}

// CommunicationInput is one contact log entry.
type CommunicationInput struct {
	Type      string
	Date      *time.Time // defaults to now
	Direction string
	Summary   string
	AgentID   *primitive.ObjectID
	Internal  bool
}

// AddCommunication appends an entry to one of owner's claim contact logs.
func (e *Engine) AddCommunication(ctx context.Context, owner, id primitive.ObjectID, in CommunicationInput) (View, error) {
	var errs []apperr.FieldError
	if !lo.Contains(models.CommunicationTypes, in.Type) {
		errs = append(errs, apperr.FieldError{Field: "type", Message: "Type must be one of " + strings.Join(models.CommunicationTypes, ", ") + "."})
	}
	if !lo.Contains(models.CommunicationDirections, in.Direction) {
		errs = append(errs, apperr.FieldError{Field: "direction", Message: "Direction must be inbound or outbound."})
	}
	if strings.TrimSpace(in.Summary) == "" {
		errs = append(errs, apperr.FieldError{Field: "summary", Message: "Summary is required."})
	}
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid communication", errs...)
	}

	now := e.now()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}
	m := models.Communication{
		Type:      in.Type,
		Date:      date,
		Direction: in.Direction,
		Summary:   in.Summary,
		AgentID:   in.AgentID,
		Internal:  in.Internal,
	}
	c, err := e.Store.AppendCommunication(ctx, id, owner, m, now)
	if err != nil {
		return View{}, fail(CodeCommunicationFailed, err)
	}
	e.Audit.Claim(ctx, audit.EventClaimCommunication, c, map[string]string{"type": m.Type, "direction": m.Direction})
	return e.view(c), nil
}

// AddNote appends text to the user, agent or system bucket of one of
// owner's claims.
func (e *Engine) AddNote(ctx context.Context, owner, id primitive.ObjectID, bucket, text string) (View, error) {
	var errs []apperr.FieldError
	if !lo.Contains([]string{models.NoteUser, models.NoteAgent, models.NoteSystem}, bucket) {
		errs = append(errs, apperr.FieldError{Field: "type", Message: "Type must be user, agent or system."})
	}
	if strings.TrimSpace(text) == "" {
		errs = append(errs, apperr.FieldError{Field: "note", Message: "Note is required."})
	}
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid note", errs...)
	}

	c, err := e.Store.AppendNote(ctx, id, owner, bucket, text, e.now())
	if err != nil {
		return View{}, fail(CodeNoteFailed, err)
	}
	e.Audit.Claim(ctx, audit.EventClaimNote, c, map[string]string{"bucket": bucket})
	return e.view(c), nil
}

// SettlementInput is the payout decided for a claim.
type SettlementInput struct {
	Amount    float64
	Date      *time.Time // defaults to now
	Method    string
	Reference string
	Notes     string
}

// SetSettlement records the payout of one of owner's claims. It replaces
// any earlier settlement and leaves the claim status alone.
func (e *Engine) SetSettlement(ctx context.Context, owner, id primitive.ObjectID, in SettlementInput) (View, error) {
	var errs []apperr.FieldError
	if in.Amount <= 0 {
		errs = append(errs, apperr.FieldError{Field: "amount", Message: "Amount must be greater than 0."})
	}
	if !lo.Contains(models.SettlementMethods, in.Method) {
		errs = append(errs, apperr.FieldError{Field: "method", Message: "Method must be one of " + strings.Join(models.SettlementMethods, ", ") + "."})
	}
	if len(errs) > 0 {
		return View{}, apperr.Validation("Invalid settlement", errs...)
	}

	now := e.now()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}
	s := models.Settlement{
		Amount:    in.Amount,
		Currency:  models.ClaimCurrency,
		Date:      date,
		Method:    in.Method,
		Reference: in.Reference,
		Notes:     in.Notes,
	}
	c, err := e.Store.SetSettlement(ctx, id, owner, s, now)
	if err != nil {
		return View{}, fail(CodeSettlementFailed, err)
	}
	e.Audit.Claim(ctx, audit.EventClaimSettlement, c, map[string]string{"method": s.Method, "reference": s.Reference})
	return e.view(c), nil
}
