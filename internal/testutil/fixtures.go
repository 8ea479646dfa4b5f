package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

var seq atomic.Int64

func nextNumber(prefix string) string {
	return fmt.Sprintf("%s%d%04d", prefix, time.Now().Year(), seq.Add(1)%10000)
}

// CreateUser creates an active client. The password hash is a placeholder;
// use the auth feature's register flow when a real credential is needed.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Phone:        "0612345678",
		Address:      models.Address{City: "Casablanca", Country: "Maroc"},
		ClientSince:  now,
		Status:       models.TierNew,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreatePolicy creates an Auto policy for userID in the given status,
// running from 2025-01-01 to 2026-01-01.
func (f *Fixtures) CreatePolicy(ctx context.Context, userID primitive.ObjectID, status models.PolicyStatus) models.Policy {
	f.t.Helper()

	now := time.Now().UTC()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	p := models.Policy{
		ID:           primitive.NewObjectID(),
		PolicyNumber: nextNumber("POL"),
		UserID:       userID,
		Type:         models.PolicyTypeAuto,
		Vehicle: models.Vehicle{
			Brand:       "Dacia",
			Model:       "Logan",
			Year:        2021,
			PlateNumber: "12345A6",
			FuelType:    models.FuelDiesel,
		},
		Coverage:  models.Coverage{RCObligatoire: true, Vol: true},
		Dates:     models.PolicyDates{StartDate: start, EndDate: end, RenewalDate: end},
		Financial: models.Financial{Premium: 3500, Franchise: 3000},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("policies").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test policy: %v", err)
	}
	return p
}

// CreateClaim creates a Draft accident claim against policyID.
func (f *Fixtures) CreateClaim(ctx context.Context, userID, policyID primitive.ObjectID) models.Claim {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Claim{
		ID:          primitive.NewObjectID(),
		ClaimNumber: nextNumber("CLM"),
		UserID:      userID,
		PolicyID:    policyID,
		Type:        models.ClaimAccident,
		Incident: models.Incident{
			Date:        now.Add(-48 * time.Hour),
			Time:        "14:30",
			Location:    models.Location{Address: "Bd Zerktouni", City: "Casablanca"},
			Description: "Rear-ended at a red light",
		},
		Damages: models.Damages{
			EstimatedAmount: 12000,
			Currency:        models.ClaimCurrency,
			Details: []models.DamageLine{
				{Item: "Rear bumper", EstimatedCost: 12000, Status: models.LinePending},
			},
		},
		Priority:  models.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.AddTimelineEntry(now, models.ClaimDraft, "Claim created", models.ActorUser, nil, false)

	if _, err := f.db.Collection("claims").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test claim: %v", err)
	}
	return c
}
