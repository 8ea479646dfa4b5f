// internal/app/store/policies/policystore.go
package policystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/assurance/internal/app/system/paging"
	"github.com/dalemusser/assurance/internal/app/system/search"
	"github.com/dalemusser/assurance/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the policies collection name.
const Collection = "policies"

// ErrDuplicateNumber is returned when the policy number is already taken.
var ErrDuplicateNumber = errors.New("a policy with this number already exists")

// SortFields is the sortBy allow-list for policy lists.
var SortFields = paging.SortFields{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"startDate": "dates.start_date",
	"endDate":   "dates.end_date",
	"premium":   "financial.premium",
	"status":    "status",
}

// DefaultSort is used when the client sends no sortBy.
const DefaultSort = "createdAt"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Filter narrows a policy list. Zero values are ignored.
type Filter struct {
	Type       models.PolicyType
	Status     models.PolicyStatus
	StartFrom  *time.Time // dates.start_date >=
	EndBefore  *time.Time // dates.end_date <=
	MinPremium *float64
	MaxPremium *float64
	Search     string
}

func (f Filter) bson(owner primitive.ObjectID) bson.M {
	m := bson.M{"user_id": owner}
	if f.Type != "" {
		m["type"] = f.Type
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.StartFrom != nil {
		m["dates.start_date"] = bson.M{"$gte": *f.StartFrom}
	}
	if f.EndBefore != nil {
		m["dates.end_date"] = bson.M{"$lte": *f.EndBefore}
	}
	if f.MinPremium != nil || f.MaxPremium != nil {
		r := bson.M{}
		if f.MinPremium != nil {
			r["$gte"] = *f.MinPremium
		}
		if f.MaxPremium != nil {
			r["$lte"] = *f.MaxPremium
		}
		m["financial.premium"] = r
	}
	search.AnyField(m, f.Search,
		"policy_number", "vehicle.brand", "vehicle.model", "vehicle.plate_number")
	return m
}

// Create inserts p, assigning an ID when it has none.
func (s *Store) Create(ctx context.Context, p models.Policy) (models.Policy, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Policy{}, ErrDuplicateNumber
		}
		return models.Policy{}, err
	}
	return p, nil
}

// Get loads one of owner's policies. Returns mongo.ErrNoDocuments if the
// policy does not exist or belongs to someone else.
func (s *Store) Get(ctx context.Context, id, owner primitive.ObjectID) (models.Policy, error) {
	var p models.Policy
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": owner}).Decode(&p); err != nil {
		return models.Policy{}, err
	}
	return p, nil
}

// List returns one page of owner's policies and the total match count.
func (s *Store) List(ctx context.Context, owner primitive.ObjectID, f Filter, pg paging.Params) ([]models.Policy, int64, error) {
	filter := f.bson(owner)

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := s.c.Find(ctx, filter, pg.FindOptions(SortFields))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := make([]models.Policy, 0, pg.Limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Replace overwrites the stored policy with p. The match is on both _id and
// owner. Returns mongo.ErrNoDocuments when nothing matched.
func (s *Store) Replace(ctx context.Context, p models.Policy) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID, "user_id": p.UserID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes one of owner's policies.
// Returns mongo.ErrNoDocuments when nothing matched.
func (s *Store) Delete(ctx context.Context, id, owner primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// StatRows projects every policy of owner down to the fields the stats
// summary needs.
func (s *Store) StatRows(ctx context.Context, owner primitive.ObjectID) ([]models.PolicyStatRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": owner}}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"type":      1,
			"status":    1,
			"premium":   "$financial.premium",
			"franchise": "$financial.franchise",
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.PolicyStatRow{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
