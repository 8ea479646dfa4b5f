// internal/app/features/claims/types.go
package claims

import (
	"strings"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/lifecycle/claimlife"
	"github.com/dalemusser/assurance/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90" label:"Latitude"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180" label:"Longitude"`
}

func (c *coordinatesRequest) coordinates() *models.Coordinates {
	if c == nil {
		return nil
	}
	return &models.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

type locationRequest struct {
	Address     string              `json:"address" validate:"required,min=5,max=200" label:"Address"`
	City        string              `json:"city" validate:"required,min=2,max=100" label:"City"`
	Coordinates *coordinatesRequest `json:"coordinates"`
}

type witnessRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100" label:"Witness name"`
	Phone string `json:"phone" validate:"omitempty,maphone" label:"Witness phone"`
	Email string `json:"email" validate:"omitempty,email" label:"Witness email"`
}

func witnesses(in []witnessRequest) []models.Witness {
	if in == nil {
		return nil
	}
	return lo.Map(in, func(w witnessRequest, _ int) models.Witness {
		return models.Witness{
			Name:  htmlsanitize.PlainText(w.Name),
			Phone: w.Phone,
			Email: strings.ToLower(w.Email),
		}
	})
}

type incidentRequest struct {
	Date        shared.Date      `json:"date" validate:"required" label:"Incident date"`
	Time        string           `json:"time" validate:"required,hhmm" label:"Incident time"`
	Location    locationRequest  `json:"location"`
	Description string           `json:"description" validate:"required,min=10,max=2000" label:"Description"`
	Witnesses   []witnessRequest `json:"witnesses" validate:"max=5,dive" label:"Witnesses"`
}

func (req incidentRequest) incident() models.Incident {
	return models.Incident{
		Date: req.Date.Time,
		Time: req.Time,
		Location: models.Location{
			Address:     htmlsanitize.PlainText(req.Location.Address),
			City:        htmlsanitize.PlainText(req.Location.City),
			Coordinates: req.Location.Coordinates.coordinates(),
		},
		Description: htmlsanitize.PlainText(req.Description),
		Witnesses:   witnesses(req.Witnesses),
	}
}

type lineRequest struct {
	Item          string   `json:"item" validate:"required,min=2,max=100" label:"Item"`
	Description   string   `json:"description" validate:"max=500" label:"Damage description"`
	EstimatedCost float64  `json:"estimatedCost" validate:"gt=0" label:"Estimated cost"`
	ActualCost    *float64 `json:"actualCost" validate:"omitempty,gte=0" label:"Actual cost"`
	Status        string   `json:"status" validate:"omitempty,oneof=Pending Approved Rejected Completed" label:"Line status"`
}

type damagesRequest struct {
	EstimatedAmount float64       `json:"estimatedAmount" validate:"gt=0" label:"Estimated amount"`
	ActualAmount    *float64      `json:"actualAmount" validate:"omitempty,gte=0" label:"Actual amount"`
	Details         []lineRequest `json:"details" validate:"required,min=1,max=20,dive" label:"Damage details"`
}

func (req damagesRequest) damages() models.Damages {
	return models.Damages{
		EstimatedAmount: req.EstimatedAmount,
		ActualAmount:    req.ActualAmount,
		Details: lo.Map(req.Details, func(l lineRequest, _ int) models.DamageLine {
			return models.DamageLine{
				Item:          htmlsanitize.PlainText(l.Item),
				Description:   htmlsanitize.PlainText(l.Description),
				EstimatedCost: l.EstimatedCost,
				ActualCost:    l.ActualCost,
				Status:        models.LineStatus(l.Status),
			}
		}),
	}
}

type createRequest struct {
	ClaimNumber string          `json:"claimNumber" validate:"omitempty,max=30" label:"Claim number"`
	PolicyID    string          `json:"policyId" validate:"required,objectid" label:"Policy"`
	Type        string          `json:"type" validate:"required,oneof=Accident Theft Damage Fire GlassBreakage Assistance Other" label:"Type"`
	Incident    incidentRequest `json:"incident"`
	Damages     damagesRequest  `json:"damages"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent" label:"Priority"`
}

func (req createRequest) input() claimlife.CreateInput {
	policyID, _ := primitive.ObjectIDFromHex(req.PolicyID)
	return claimlife.CreateInput{
		ClaimNumber: strings.TrimSpace(req.ClaimNumber),
		PolicyID:    policyID,
		Type:        models.ClaimType(req.Type),
		Incident:    req.Incident.incident(),
		Damages:     req.Damages.damages(),
		Priority:    models.Priority(req.Priority),
	}
}

type locationPatchRequest struct {
	Address     *string             `json:"address" validate:"omitempty,min=5,max=200" label:"Address"`
	City        *string             `json:"city" validate:"omitempty,min=2,max=100" label:"City"`
	Coordinates *coordinatesRequest `json:"coordinates"`
}

type incidentPatchRequest struct {
	Date        *shared.Date          `json:"date"`
	Time        *string               `json:"time" validate:"omitempty,hhmm" label:"Incident time"`
	Location    *locationPatchRequest `json:"location"`
	Description *string               `json:"description" validate:"omitempty,min=10,max=2000" label:"Description"`
	Witnesses   []witnessRequest      `json:"witnesses" validate:"omitempty,max=5,dive" label:"Witnesses"`
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := htmlsanitize.PlainText(*s)
	return &v
}

func (req *incidentPatchRequest) patch() *claimlife.IncidentPatch {
	if req == nil {
		return nil
	}
	p := &claimlife.IncidentPatch{
		Date:        req.Date.Ptr(),
		Time:        req.Time,
		Description: sanitized(req.Description),
		Witnesses:   witnesses(req.Witnesses),
	}
	if l := req.Location; l != nil {
		p.Location = &claimlife.LocationPatch{
			Address:     sanitized(l.Address),
			City:        sanitized(l.City),
			Coordinates: l.Coordinates.coordinates(),
		}
	}
	return p
}

type linePatchRequest struct {
	Item          *string  `json:"item" validate:"omitempty,min=2,max=100" label:"Item"`
	Description   *string  `json:"description" validate:"omitempty,max=500" label:"Damage description"`
	EstimatedCost *float64 `json:"estimatedCost" validate:"omitempty,gt=0" label:"Estimated cost"`
	ActualCost    *float64 `json:"actualCost" validate:"omitempty,gte=0" label:"Actual cost"`
	Status        *string  `json:"status" validate:"omitempty,oneof=Pending Approved Rejected Completed" label:"Line status"`
}

type damagesPatchRequest struct {
	EstimatedAmount *float64           `json:"estimatedAmount" validate:"omitempty,gt=0" label:"Estimated amount"`
	ActualAmount    *float64           `json:"actualAmount" validate:"omitempty,gte=0" label:"Actual amount"`
	Details         []linePatchRequest `json:"details" validate:"omitempty,max=20,dive" label:"Damage details"`
}

func (req *damagesPatchRequest) patch() *claimlife.DamagesPatch {
	if req == nil {
		return nil
	}
	return &claimlife.DamagesPatch{
		EstimatedAmount: req.EstimatedAmount,
		ActualAmount:    req.ActualAmount,
		Details: lo.Map(req.Details, func(l linePatchRequest, _ int) claimlife.LinePatch {
			lp := claimlife.LinePatch{
				Item:          sanitized(l.Item),
				Description:   sanitized(l.Description),
				EstimatedCost: l.EstimatedCost,
				ActualCost:    l.ActualCost,
			}
			if l.Status != nil {
				s := models.LineStatus(*l.Status)
				lp.Status = &s
			}
			return lp
		}),
	}
}

// updateRequest leaves status unchecked at the boundary so the engine can
// answer with INVALID_STATUS.
type updateRequest struct {
	Incident *incidentPatchRequest `json:"incident"`
	Damages  *damagesPatchRequest  `json:"damages"`
	Priority *string               `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent" label:"Priority"`
	Status   *string               `json:"status"`
	Notes    *string               `json:"notes" validate:"omitempty,max=1000" label:"Notes"`
}

func (req updateRequest) patch() claimlife.Patch {
	p := claimlife.Patch{
		Incident: req.Incident.patch(),
		Damages:  req.Damages.patch(),
		Notes:    sanitized(req.Notes),
	}
	if req.Priority != nil {
		pr := models.Priority(*req.Priority)
		p.Priority = &pr
	}
	if req.Status != nil {
		s := models.ClaimStatus(*req.Status)
		p.Status = &s
	}
	return p
}

type timelineRequest struct {
	Status      string `json:"status" validate:"required" label:"Status"`
	Description string `json:"description" validate:"required,min=3,max=500" label:"Description"`
	UpdatedBy   string `json:"updatedBy" validate:"omitempty,oneof=user agent" label:"Updated by"`
	AgentID     string `json:"agentId" validate:"omitempty,objectid" label:"Agent"`
	Internal    bool   `json:"internal"`
}

func objectID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

func (req timelineRequest) input() claimlife.TimelineInput {
	return claimlife.TimelineInput{
		Status:      models.ClaimStatus(req.Status),
		Description: htmlsanitize.PlainText(req.Description),
		UpdatedBy:   models.ActorKind(req.UpdatedBy),
		AgentID:     objectID(req.AgentID),
		Internal:    req.Internal,
	}
}

type documentRequest struct {
	Type         string `json:"type" validate:"required,oneof=photo police_report medical_report estimate other" label:"Document type"`
	Filename     string `json:"filename" validate:"required,max=255" label:"Filename"`
	OriginalName string `json:"originalName" validate:"max=255" label:"Original name"`
	Size         int64  `json:"size" validate:"gte=0" label:"Size"`
	MimeType     string `json:"mimeType" validate:"max=100" label:"MIME type"`
	UploadedBy   string `json:"uploadedBy" validate:"omitempty,oneof=user agent" label:"Uploaded by"`
	Description  string `json:"description" validate:"max=500" label:"Description"`
}

func (req documentRequest) input() claimlife.DocumentInput {
	return claimlife.DocumentInput{
		Type:         req.Type,
		Filename:     req.Filename,
		OriginalName: req.OriginalName,
		Size:         req.Size,
		MimeType:     req.MimeType,
		UploadedBy:   models.ActorKind(req.UploadedBy),
		Description:  htmlsanitize.PlainText(req.Description),
	}
}

type communicationRequest struct {
	Type      string       `json:"type" validate:"required,oneof=email phone sms in_person" label:"Type"`
	Date      *shared.Date `json:"date"`
	Direction string       `json:"direction" validate:"required,oneof=inbound outbound" label:"Direction"`
	Summary   string       `json:"summary" validate:"required,min=5,max=500" label:"Summary"`
	AgentID   string       `json:"agentId" validate:"omitempty,objectid" label:"Agent"`
	Internal  bool         `json:"internal"`
}

func (req communicationRequest) input() claimlife.CommunicationInput {
	return claimlife.CommunicationInput{
		Type:      req.Type,
		Date:      req.Date.Ptr(),
		Direction: req.Direction,
		Summary:   htmlsanitize.PlainText(req.Summary),
		AgentID:   objectID(req.AgentID),
		Internal:  req.Internal,
	}
}

type noteRequest struct {
	Note string `json:"note" validate:"required,min=1,max=1000" label:"Note"`
	Type string `json:"type" validate:"omitempty,oneof=user agent system" label:"Type"`
}

func (req noteRequest) bucket() string {
	if req.Type == "" {
		return models.NoteUser
	}
	return req.Type
}

type settlementRequest struct {
	Amount    float64      `json:"amount" validate:"gt=0" label:"Amount"`
	Date      *shared.Date `json:"date"`
	Method    string       `json:"method" validate:"required,oneof='Bank Transfer' Check Cash Credit" label:"Method"`
	Reference string       `json:"reference" validate:"max=100" label:"Reference"`
	Notes     string       `json:"notes" validate:"max=500" label:"Notes"`
}

func (req settlementRequest) input() claimlife.SettlementInput {
	return claimlife.SettlementInput{
		Amount:    req.Amount,
		Date:      req.Date.Ptr(),
		Method:    req.Method,
		Reference: htmlsanitize.PlainText(req.Reference),
		Notes:     htmlsanitize.PlainText(req.Notes),
	}
}

// claimResponse is the body of successful writes.
type claimResponse struct {
	Message string         `json:"message"`
	Claim   claimlife.View `json:"claim"`
}
