// internal/domain/models/policy.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PolicyType is the product line a policy belongs to.
type PolicyType string

const (
	PolicyTypeAuto       PolicyType = "Auto"
	PolicyTypeMoto       PolicyType = "Moto"
	PolicyTypeCommercial PolicyType = "Commercial"
	PolicyTypeHome       PolicyType = "Home"
)

// PolicyTypes lists every accepted policy type.
var PolicyTypes = []PolicyType{PolicyTypeAuto, PolicyTypeMoto, PolicyTypeCommercial, PolicyTypeHome}

// Valid reports whether t is a known policy type.
func (t PolicyType) Valid() bool {
	for _, v := range PolicyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyDraft     PolicyStatus = "Draft"
	PolicyPending   PolicyStatus = "Pending"
	PolicyActive    PolicyStatus = "Active"
	PolicySuspended PolicyStatus = "Suspended"
	PolicyExpired   PolicyStatus = "Expired"
	PolicyCancelled PolicyStatus = "Cancelled"
)

// PolicyStatuses lists every policy status in lifecycle order.
var PolicyStatuses = []PolicyStatus{
	PolicyDraft, PolicyPending, PolicyActive, PolicySuspended, PolicyExpired, PolicyCancelled,
}

// Valid reports whether s is a known policy status.
func (s PolicyStatus) Valid() bool {
	for _, v := range PolicyStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Renewable reports whether a policy in status s may be renewed.
func (s PolicyStatus) Renewable() bool {
	return s == PolicyActive || s == PolicyExpired
}

// Cancellable reports whether a policy in status s may be cancelled.
func (s PolicyStatus) Cancellable() bool {
	return s != PolicyCancelled && s != PolicyExpired
}

// Fuel types accepted on a vehicle.
const (
	FuelEssence    = "Essence"
	FuelDiesel     = "Diesel"
	FuelElectrique = "Électrique"
	FuelHybride    = "Hybride"
)

// Vehicle describes the insured vehicle.
type Vehicle struct {
	Brand       string `bson:"brand" json:"brand"`
	Model       string `bson:"model" json:"model"`
	Year        int    `bson:"year" json:"year"`
	PlateNumber string `bson:"plate_number" json:"plateNumber"`
	VIN         string `bson:"vin,omitempty" json:"vin,omitempty"`
	EngineSize  string `bson:"engine_size,omitempty" json:"engineSize,omitempty"`
	FuelType    string `bson:"fuel_type,omitempty" json:"fuelType,omitempty"`
}

// Coverage holds the named coverage options of a policy.
// RCObligatoire (third-party liability) is always on.
type Coverage struct {
	RCObligatoire        bool `bson:"rc_obligatoire" json:"rcObligatoire"`
	Vol                  bool `bson:"vol" json:"vol"`
	Incendie             bool `bson:"incendie" json:"incendie"`
	BrisGlace            bool `bson:"bris_glace" json:"brisGlace"`
	Assistance           bool `bson:"assistance" json:"assistance"`
	Defense              bool `bson:"defense" json:"defense"`
	DommagesCollision    bool `bson:"dommages_collision" json:"dommagesCollision"`
	ProtectionConducteur bool `bson:"protection_conducteur" json:"protectionConducteur"`
}

// CoverageRC is the name of the mandatory liability coverage.
const CoverageRC = "rcObligatoire"

// CoverageNames lists the coverage option names as they appear on the wire.
var CoverageNames = []string{
	CoverageRC, "vol", "incendie", "brisGlace", "assistance",
	"defense", "dommagesCollision", "protectionConducteur",
}

func (c *Coverage) flag(name string) *bool {
	switch name {
	case CoverageRC:
		return &c.RCObligatoire
	case "vol":
		return &c.Vol
	case "incendie":
		return &c.Incendie
	case "brisGlace":
		return &c.BrisGlace
	case "assistance":
		return &c.Assistance
	case "defense":
		return &c.Defense
	case "dommagesCollision":
		return &c.DommagesCollision
	case "protectionConducteur":
		return &c.ProtectionConducteur
	}
	return nil
}

// Set turns the named option on or off and reports whether the name is known.
// Turning rcObligatoire off is a no-op.
func (c *Coverage) Set(name string, on bool) bool {
	f := c.flag(name)
	if f == nil {
		return false
	}
	if name == CoverageRC {
		*f = true
		return true
	}
	*f = on
	return true
}

// Enforce forces the mandatory liability coverage on.
func (c *Coverage) Enforce() {
	c.RCObligatoire = true
}

// PolicyDates is the start/end/renewal triple of a policy.
type PolicyDates struct {
	StartDate   time.Time `bson:"start_date" json:"startDate"`
	EndDate     time.Time `bson:"end_date" json:"endDate"`
	RenewalDate time.Time `bson:"renewal_date" json:"renewalDate"`
}

// Ordered reports whether start < end <= renewal.
func (d PolicyDates) Ordered() bool {
	return d.StartDate.Before(d.EndDate) && !d.RenewalDate.Before(d.EndDate)
}

// Financial holds the premium, deductible (franchise) and taxes of a policy.
// TotalAmount is derived and never persisted.
type Financial struct {
	Premium     float64 `bson:"premium" json:"premium"`
	Franchise   float64 `bson:"franchise" json:"franchise"`
	Taxes       float64 `bson:"taxes" json:"taxes"`
	TotalAmount float64 `bson:"-" json:"totalAmount"`
}

// Total returns premium + franchise + taxes, summed in decimal.
func (f Financial) Total() float64 {
	return decimal.NewFromFloat(f.Premium).
		Add(decimal.NewFromFloat(f.Franchise)).
		Add(decimal.NewFromFloat(f.Taxes)).
		InexactFloat64()
}

// Recompute refreshes TotalAmount from the three inputs.
func (f *Financial) Recompute() {
	f.TotalAmount = f.Total()
}

// PolicyDocument is metadata about a file attached to a policy.
type PolicyDocument struct {
	Type       string    `bson:"type" json:"type"`
	Filename   string    `bson:"filename" json:"filename"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploadedAt"`
}

// Agent is the sales contact attached to a policy.
type Agent struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Policy is an insurance contract owned by a user.
type Policy struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PolicyNumber string             `bson:"policy_number" json:"policyNumber"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	Type         PolicyType         `bson:"type" json:"type"`
	Vehicle      Vehicle            `bson:"vehicle" json:"vehicle"`
	Coverage     Coverage           `bson:"coverage" json:"coverage"`
	Dates        PolicyDates        `bson:"dates" json:"dates"`
	Financial    Financial          `bson:"financial" json:"financial"`
	Status       PolicyStatus       `bson:"status" json:"status"`
	Documents    []PolicyDocument   `bson:"documents,omitempty" json:"documents"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Agent        *Agent             `bson:"agent,omitempty" json:"agent,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Duration is the number of days covered by the policy.
func (p Policy) Duration() int {
	return DaysCeil(p.Dates.StartDate, p.Dates.EndDate)
}

// DaysUntilRenewal is the number of days left before the renewal date.
// It goes negative once the date has passed.
func (p Policy) DaysUntilRenewal(now time.Time) int {
	return DaysCeil(now, p.Dates.RenewalDate)
}

// PolicyTypeStats is one entry of the per-type breakdown in PolicyStats.
type PolicyTypeStats struct {
	Count        int     `json:"count"`
	TotalPremium float64 `json:"totalPremium"`
}

// PolicyStats summarizes a user's portfolio.
type PolicyStats struct {
	TotalPolicies  int                            `json:"totalPolicies"`
	ActivePolicies int                            `json:"activePolicies"`
	TotalPremium   float64                        `json:"totalPremium"`
	TotalFranchise float64                        `json:"totalFranchise"`
	AveragePremium float64                        `json:"averagePremium"`
	TypeBreakdown  map[PolicyType]PolicyTypeStats `json:"typeBreakdown"`
}

// PolicyStatRow is the per-policy projection the stats aggregation works on.
type PolicyStatRow struct {
	Type      PolicyType   `bson:"type"`
	Status    PolicyStatus `bson:"status"`
	Premium   float64      `bson:"premium"`
	Franchise float64      `bson:"franchise"`
}
