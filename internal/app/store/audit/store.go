// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the audit events collection name.
const Collection = "audit_events"

// Event categories
const (
	CategoryAuth   = "auth"
	CategoryPolicy = "policy"
	CategoryClaim  = "claim"
)

// Auth event types
const (
	EventUserRegistered          = "user_registered"
	EventLoginSuccess            = "login_success"
	EventLoginFailedUserNotFound = "login_failed_user_not_found"
	EventLoginFailedPassword     = "login_failed_wrong_password"
	EventLoginFailedLocked       = "login_failed_locked"
	EventLoginFailedDeactivated  = "login_failed_deactivated"
	EventLoginFailedRateLimit    = "login_failed_rate_limit"
	EventAccountLocked           = "account_locked"
	EventTokenRefreshed          = "token_refreshed"
	EventLogout                  = "logout"
	EventProfileUpdated          = "profile_updated"
)

// Policy event types
const (
	EventPolicyCreated   = "policy_created"
	EventPolicyUpdated   = "policy_updated"
	EventPolicyDeleted   = "policy_deleted"
	EventPolicyRenewed   = "policy_renewed"
	EventPolicyExpired   = "policy_expired"
	EventPolicyCancelled = "policy_cancelled"
)

// Claim event types
const (
	EventClaimCreated       = "claim_created"
	EventClaimUpdated       = "claim_updated"
	EventClaimStatusChanged = "claim_status_changed"
	EventClaimDocument      = "claim_document_added"
	EventClaimCommunication = "claim_communication_added"
	EventClaimNote          = "claim_note_added"
	EventClaimSettlement    = "claim_settlement_set"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	UserID *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`

	// What (policy or claim)
	EntityID     *primitive.ObjectID `bson:"entity_id,omitempty" json:"entityId,omitempty"`
	EntityNumber string              `bson:"entity_number,omitempty" json:"entityNumber,omitempty"`

	// Context (HTTP-originated events only)
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	EntityID  *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) bson() bson.M {
	query := bson.M{}
	if f.UserID != nil {
		query["user_id"] = f.UserID
	}
	if f.EntityID != nil {
		query["entity_id"] = f.EntityID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// GetByUser retrieves recent audit events for a user.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{UserID: &userID, Limit: limit})
}
