// internal/app/features/policies/types.go
package policies

import (
	"strings"
	"time"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/lifecycle/policylife"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assurance/internal/domain/models"
)

type vehicleRequest struct {
	Brand       string `json:"brand" validate:"required,min=2,max=50" label:"Brand"`
	Model       string `json:"model" validate:"required,min=2,max=50" label:"Model"`
	Year        int    `json:"year" validate:"required,min=1900" label:"Year"`
	PlateNumber string `json:"plateNumber" validate:"required,plate" label:"Plate number"`
	VIN         string `json:"vin" validate:"omitempty,len=17" label:"VIN"`
	EngineSize  string `json:"engineSize" validate:"max=20" label:"Engine size"`
	FuelType    string `json:"fuelType" validate:"omitempty,oneof=Essence Diesel Électrique Hybride" label:"Fuel type"`
}

func (v vehicleRequest) vehicle() models.Vehicle {
	return models.Vehicle{
		Brand:       htmlsanitize.PlainText(v.Brand),
		Model:       htmlsanitize.PlainText(v.Model),
		Year:        v.Year,
		PlateNumber: strings.ToUpper(v.PlateNumber),
		VIN:         strings.ToUpper(v.VIN),
		EngineSize:  htmlsanitize.PlainText(v.EngineSize),
		FuelType:    v.FuelType,
	}
}

// checkYear bounds the model year by next year, which tags cannot express.
func checkYear(year int, now time.Time) []apperr.FieldError {
	if year > now.Year()+1 {
		return []apperr.FieldError{{Field: "vehicle.year", Message: "Year cannot be later than next year."}}
	}
	return nil
}

type datesRequest struct {
	StartDate   shared.Date `json:"startDate" validate:"required" label:"Start date"`
	EndDate     shared.Date `json:"endDate" validate:"required" label:"End date"`
	RenewalDate shared.Date `json:"renewalDate" validate:"required" label:"Renewal date"`
}

type financialRequest struct {
	Premium   float64 `json:"premium" validate:"gt=0" label:"Premium"`
	Franchise float64 `json:"franchise" validate:"gte=0" label:"Franchise"`
	Taxes     float64 `json:"taxes" validate:"gte=0" label:"Taxes"`
}

type agentRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=50" label:"Agent name"`
	Email string `json:"email" validate:"omitempty,email" label:"Agent email"`
	Phone string `json:"phone" validate:"omitempty,maphone" label:"Agent phone"`
}

func (a *agentRequest) agent() *models.Agent {
	if a == nil {
		return nil
	}
	return &models.Agent{
		Name:  htmlsanitize.PlainText(a.Name),
		Email: strings.ToLower(a.Email),
		Phone: a.Phone,
	}
}

type documentRequest struct {
	Type     string `json:"type" validate:"required,max=50" label:"Document type"`
	Filename string `json:"filename" validate:"required,max=255" label:"Filename"`
}

// coverage applies named options over the mandatory liability coverage.
func coverage(opts map[string]bool) (models.Coverage, []apperr.FieldError) {
	var c models.Coverage
	var errs []apperr.FieldError
	for name, on := range opts {
		if !c.Set(name, on) {
			errs = append(errs, apperr.FieldError{Field: "coverage." + name, Message: "Unknown coverage option."})
		}
	}
	c.Enforce()
	return c, errs
}

type createRequest struct {
	PolicyNumber string            `json:"policyNumber" validate:"omitempty,max=30" label:"Policy number"`
	Type         string            `json:"type" validate:"required,oneof=Auto Moto Commercial Home" label:"Type"`
	Vehicle      vehicleRequest    `json:"vehicle"`
	Coverage     map[string]bool   `json:"coverage"`
	Dates        datesRequest      `json:"dates"`
	Financial    financialRequest  `json:"financial"`
	Documents    []documentRequest `json:"documents" validate:"dive"`
	Notes        string            `json:"notes" validate:"max=1000" label:"Notes"`
	Agent        *agentRequest     `json:"agent"`
}

func (req createRequest) input(now time.Time) (policylife.CreateInput, []apperr.FieldError) {
	errs := checkYear(req.Vehicle.Year, now)
	cov, covErrs := coverage(req.Coverage)
	errs = append(errs, covErrs...)

	docs := make([]models.PolicyDocument, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, models.PolicyDocument{
			Type:       htmlsanitize.PlainText(d.Type),
			Filename:   d.Filename,
			UploadedAt: now,
		})
	}

	return policylife.CreateInput{
		PolicyNumber: strings.TrimSpace(req.PolicyNumber),
		Type:         models.PolicyType(req.Type),
		Vehicle:      req.Vehicle.vehicle(),
		Coverage:     cov,
		Dates: models.PolicyDates{
			StartDate:   req.Dates.StartDate.Time,
			EndDate:     req.Dates.EndDate.Time,
			RenewalDate: req.Dates.RenewalDate.Time,
		},
		Financial: models.Financial{
			Premium:   req.Financial.Premium,
			Franchise: req.Financial.Franchise,
			Taxes:     req.Financial.Taxes,
		},
		Documents: docs,
		Notes:     htmlsanitize.PlainText(req.Notes),
		Agent:     req.Agent.agent(),
	}, errs
}

type datesPatchRequest struct {
	StartDate   *shared.Date `json:"startDate"`
	EndDate     *shared.Date `json:"endDate"`
	RenewalDate *shared.Date `json:"renewalDate"`
}

type financialPatchRequest struct {
	Premium   *float64 `json:"premium" validate:"omitempty,gt=0" label:"Premium"`
	Franchise *float64 `json:"franchise" validate:"omitempty,gte=0" label:"Franchise"`
	Taxes     *float64 `json:"taxes" validate:"omitempty,gte=0" label:"Taxes"`
}

type updateRequest struct {
	Type      *string                `json:"type" validate:"omitempty,oneof=Auto Moto Commercial Home" label:"Type"`
	Vehicle   *vehicleRequest        `json:"vehicle"`
	Coverage  map[string]bool        `json:"coverage"`
	Dates     *datesPatchRequest     `json:"dates"`
	Financial *financialPatchRequest `json:"financial"`
	Status    *string                `json:"status" validate:"omitempty,oneof=Draft Pending Active Suspended Expired Cancelled" label:"Status"`
	Notes     *string                `json:"notes" validate:"omitempty,max=1000" label:"Notes"`
	Agent     *agentRequest          `json:"agent"`
}

func (req updateRequest) patch(now time.Time) (policylife.Patch, []apperr.FieldError) {
	var errs []apperr.FieldError
	p := policylife.Patch{Coverage: req.Coverage, Agent: req.Agent.agent()}
	if req.Type != nil {
		t := models.PolicyType(*req.Type)
		p.Type = &t
	}
	if req.Vehicle != nil {
		errs = append(errs, checkYear(req.Vehicle.Year, now)...)
		v := req.Vehicle.vehicle()
		p.Vehicle = &v
	}
	if d := req.Dates; d != nil {
		p.Dates = &policylife.DatesPatch{
			StartDate:   d.StartDate.Ptr(),
			EndDate:     d.EndDate.Ptr(),
			RenewalDate: d.RenewalDate.Ptr(),
		}
	}
	if f := req.Financial; f != nil {
		p.Financial = &policylife.FinancialPatch{Premium: f.Premium, Franchise: f.Franchise, Taxes: f.Taxes}
	}
	if req.Status != nil {
		s := models.PolicyStatus(*req.Status)
		p.Status = &s
	}
	if req.Notes != nil {
		n := htmlsanitize.PlainText(*req.Notes)
		p.Notes = &n
	}
	return p, errs
}

type coverageChanges struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type renewRequest struct {
	RenewalDate     shared.Date     `json:"renewalDate" validate:"required" label:"Renewal date"`
	NewPremium      float64         `json:"newPremium" validate:"gt=0" label:"New premium"`
	NewFranchise    float64         `json:"newFranchise" validate:"gte=0" label:"New franchise"`
	CoverageChanges coverageChanges `json:"coverageChanges"`
	Notes           string          `json:"notes" validate:"max=1000" label:"Notes"`
}

func (req renewRequest) input() policylife.RenewInput {
	return policylife.RenewInput{
		RenewalDate:    req.RenewalDate.Time,
		NewPremium:     req.NewPremium,
		NewFranchise:   req.NewFranchise,
		AddCoverage:    req.CoverageChanges.Add,
		RemoveCoverage: req.CoverageChanges.Remove,
		Notes:          htmlsanitize.PlainText(req.Notes),
	}
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500" label:"Reason"`
}

// policyResponse is the body of successful writes.
type policyResponse struct {
	Message string          `json:"message"`
	Policy  policylife.View `json:"policy"`
}
