// internal/domain/models/claim.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClaimType classifies the incident behind a claim.
type ClaimType string

const (
	ClaimAccident      ClaimType = "Accident"
	ClaimTheft         ClaimType = "Theft"
	ClaimDamage        ClaimType = "Damage"
	ClaimFire          ClaimType = "Fire"
	ClaimGlassBreakage ClaimType = "GlassBreakage"
	ClaimAssistance    ClaimType = "Assistance"
	ClaimOther         ClaimType = "Other"
)

var ClaimTypes = []ClaimType{
	ClaimAccident, ClaimTheft, ClaimDamage, ClaimFire, ClaimGlassBreakage, ClaimAssistance, ClaimOther,
}

func (t ClaimType) Valid() bool {
	for _, v := range ClaimTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ClaimStatus is the lifecycle state of a claim. A claim's status is only
// ever changed by appending a timeline entry.
type ClaimStatus string

const (
	ClaimDraft         ClaimStatus = "Draft"
	ClaimSubmitted     ClaimStatus = "Submitted"
	ClaimUnderReview   ClaimStatus = "UnderReview"
	ClaimInvestigation ClaimStatus = "Investigation"
	ClaimApproved      ClaimStatus = "Approved"
	ClaimRejected      ClaimStatus = "Rejected"
	ClaimClosed        ClaimStatus = "Closed"
	ClaimReopened      ClaimStatus = "Reopened"
)

var ClaimStatuses = []ClaimStatus{
	ClaimDraft, ClaimSubmitted, ClaimUnderReview, ClaimInvestigation,
	ClaimApproved, ClaimRejected, ClaimClosed, ClaimReopened,
}

func (s ClaimStatus) Valid() bool {
	for _, v := range ClaimStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Priority of a claim.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// LineStatus is the status of a single damage line. It is independent of the
// claim status.
type LineStatus string

const (
	LinePending   LineStatus = "Pending"
	LineApproved  LineStatus = "Approved"
	LineRejected  LineStatus = "Rejected"
	LineCompleted LineStatus = "Completed"
)

func (s LineStatus) Valid() bool {
	switch s {
	case LinePending, LineApproved, LineRejected, LineCompleted:
		return true
	}
	return false
}

// ActorKind identifies who wrote a timeline entry or uploaded a document.
type ActorKind string

const (
	ActorUser  ActorKind = "user"
	ActorAgent ActorKind = "agent"
)

func (a ActorKind) Valid() bool {
	return a == ActorUser || a == ActorAgent
}

// Limits on claim contents.
const (
	MaxWitnesses   = 5
	MinDamageLines = 1
	MaxDamageLines = 20
	ClaimCurrency  = "MAD"
)

// Coordinates is a GPS position.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Location is where an incident happened.
type Location struct {
	Address     string       `bson:"address" json:"address"`
	City        string       `bson:"city" json:"city"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Witness of an incident.
type Witness struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
}

// Incident describes what happened.
type Incident struct {
	Date        time.Time `bson:"date" json:"date"`
	Time        string    `bson:"time" json:"time"` // HH:MM
	Location    Location  `bson:"location" json:"location"`
	Description string    `bson:"description" json:"description"`
	Witnesses   []Witness `bson:"witnesses,omitempty" json:"witnesses"`
}

// DamageLine is one itemized damage with its own review status.
type DamageLine struct {
	Item          string     `bson:"item" json:"item"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	EstimatedCost float64    `bson:"estimated_cost" json:"estimatedCost"`
	ActualCost    *float64   `bson:"actual_cost,omitempty" json:"actualCost,omitempty"`
	Status        LineStatus `bson:"status" json:"status"`
}

// Damages is the money side of a claim.
type Damages struct {
	EstimatedAmount float64      `bson:"estimated_amount" json:"estimatedAmount"`
	ActualAmount    *float64     `bson:"actual_amount,omitempty" json:"actualAmount,omitempty"`
	Currency        string       `bson:"currency" json:"currency"`
	Details         []DamageLine `bson:"details" json:"details"`
}

// TimelineEntry records one status change of a claim.
type TimelineEntry struct {
	Date        time.Time           `bson:"date" json:"date"`
	Status      ClaimStatus         `bson:"status" json:"status"`
	Description string              `bson:"description" json:"description"`
	UpdatedBy   ActorKind           `bson:"updated_by" json:"updatedBy"`
	AgentID     *primitive.ObjectID `bson:"agent_id,omitempty" json:"agentId,omitempty"`
	Internal    bool                `bson:"internal" json:"internal"`
}

// Document types accepted on a claim.
var ClaimDocumentTypes = []string{"photo", "police_report", "medical_report", "estimate", "other"}

// ClaimDocument is metadata for a file attached to a claim.
type ClaimDocument struct {
	ID           string    `bson:"id" json:"id"`
	Type         string    `bson:"type" json:"type"`
	Filename     string    `bson:"filename" json:"filename"`
	OriginalName string    `bson:"original_name,omitempty" json:"originalName,omitempty"`
	Size         int64     `bson:"size,omitempty" json:"size,omitempty"`
	MimeType     string    `bson:"mime_type,omitempty" json:"mimeType,omitempty"`
	UploadedAt   time.Time `bson:"uploaded_at" json:"uploadedAt"`
	UploadedBy   ActorKind `bson:"uploaded_by" json:"uploadedBy"`
	Description  string    `bson:"description,omitempty" json:"description,omitempty"`
}

// Communication channels and directions.
var (
	CommunicationTypes      = []string{"email", "phone", "sms", "in_person"}
	CommunicationDirections = []string{"inbound", "outbound"}
)

// Communication is one entry of the claim's contact log.
type Communication struct {
	Type      string              `bson:"type" json:"type"`           // email | phone | sms | in_person
	Date      time.Time           `bson:"date" json:"date"`
	Direction string              `bson:"direction" json:"direction"` // inbound | outbound
	Summary   string              `bson:"summary" json:"summary"`
	AgentID   *primitive.ObjectID `bson:"agent_id,omitempty" json:"agentId,omitempty"`
	Internal  bool                `bson:"internal" json:"internal"`
}

// Settlement methods.
const (
	SettleBankTransfer = "Bank Transfer"
	SettleCheck        = "Check"
	SettleCash         = "Cash"
	SettleCredit       = "Credit"
)

var SettlementMethods = []string{SettleBankTransfer, SettleCheck, SettleCash, SettleCredit}

// Settlement is the payout decided for a claim.
type Settlement struct {
	Amount    float64   `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Date      time.Time `bson:"date" json:"date"`
	Method    string    `bson:"method" json:"method"`
	Reference string    `bson:"reference,omitempty" json:"reference,omitempty"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Note buckets.
const (
	NoteUser   = "user"
	NoteAgent  = "agent"
	NoteSystem = "system"
)

// ClaimNotes groups free-text notes by author kind.
type ClaimNotes struct {
	User   []string `bson:"user,omitempty" json:"user,omitempty"`
	Agent  []string `bson:"agent,omitempty" json:"agent,omitempty"`
	System []string `bson:"system,omitempty" json:"system,omitempty"`
}

// Add appends text to the named bucket and reports whether the bucket exists.
func (n *ClaimNotes) Add(bucket, text string) bool {
	switch bucket {
	case NoteUser:
		n.User = append(n.User, text)
	case NoteAgent:
		n.Agent = append(n.Agent, text)
	case NoteSystem:
		n.System = append(n.System, text)
	default:
		return false
	}
	return true
}

// Claim is an incident report filed against a policy.
type Claim struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClaimNumber   string             `bson:"claim_number" json:"claimNumber"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	PolicyID      primitive.ObjectID `bson:"policy_id" json:"policyId"`
	Type          ClaimType          `bson:"type" json:"type"`
	Incident      Incident           `bson:"incident" json:"incident"`
	Damages       Damages            `bson:"damages" json:"damages"`
	Status        ClaimStatus        `bson:"status" json:"status"`
	Priority      Priority           `bson:"priority" json:"priority"`
	Timeline      []TimelineEntry    `bson:"timeline" json:"timeline"`
	Documents     []ClaimDocument    `bson:"documents,omitempty" json:"documents"`
	Communication []Communication    `bson:"communication,omitempty" json:"communication"`
	Settlement    *Settlement        `bson:"settlement,omitempty" json:"settlement,omitempty"`
	Notes         ClaimNotes         `bson:"notes" json:"notes"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// AddTimelineEntry appends a status change and sets the claim status to it.
// The entry date never goes backwards: if now is earlier than the last entry
// (clock skew), the last entry's date is used.
func (c *Claim) AddTimelineEntry(now time.Time, status ClaimStatus, description string, by ActorKind, agentID *primitive.ObjectID, internal bool) TimelineEntry {
	if n := len(c.Timeline); n > 0 && now.Before(c.Timeline[n-1].Date) {
		now = c.Timeline[n-1].Date
	}
	e := TimelineEntry{
		Date:        now,
		Status:      status,
		Description: description,
		UpdatedBy:   by,
		AgentID:     agentID,
		Internal:    internal,
	}
	c.Timeline = append(c.Timeline, e)
	c.Status = status
	return e
}

// AgeInDays is the number of days since the claim was created.
func (c Claim) AgeInDays(now time.Time) int {
	return DaysCeil(c.CreatedAt, now)
}

// DaysSinceLastUpdate counts days since the last timeline entry, or since
// creation when there is no timeline.
func (c Claim) DaysSinceLastUpdate(now time.Time) int {
	if n := len(c.Timeline); n > 0 {
		return DaysCeil(c.Timeline[n-1].Date, now)
	}
	return c.AgeInDays(now)
}

// ClaimStatRow is the per-claim projection used by claim stats.
type ClaimStatRow struct {
	Status          ClaimStatus `bson:"status" json:"status"`
	Priority        Priority    `bson:"priority" json:"priority"`
	EstimatedAmount float64     `bson:"estimated_amount" json:"estimatedAmount"`
	ActualAmount    float64     `bson:"actual_amount" json:"-"`
}

// ClaimStats summarizes a user's claims.
type ClaimStats struct {
	TotalClaims            int            `json:"totalClaims"`
	ClaimsByStatus         []ClaimStatRow `json:"claimsByStatus"`
	TotalEstimatedAmount   float64        `json:"totalEstimatedAmount"`
	TotalActualAmount      float64        `json:"totalActualAmount"`
	AverageEstimatedAmount float64        `json:"averageEstimatedAmount"`
}
