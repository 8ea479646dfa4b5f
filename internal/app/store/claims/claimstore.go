// internal/app/store/claims/claimstore.go
package claimstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the claims collection name.
const Collection = "claims"

// ErrDuplicateNumber is returned when the claim number is already taken.
var ErrDuplicateNumber = errors.New("a claim with this number already exists")

// ErrTimelineMoved is returned by guarded timeline writes when another
// write appended to the timeline after the caller read it.
var ErrTimelineMoved = errors.New("claim timeline changed since it was read")

// SortFields is the sortBy allow-list for claim lists.
var SortFields = paging.SortFields{
	"createdAt":               "created_at",
	"updatedAt":               "updated_at",
	"incident.date":           "incident.date",
	"damages.estimatedAmount": "damages.estimated_amount",
	"status":                  "status",
	"priority":                "priority",
}

// DefaultSort is used when the client sends no sortBy.
const DefaultSort = "createdAt"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Filter narrows a claim list. Zero values are ignored.
type Filter struct {
	Type      models.ClaimType
	Status    models.ClaimStatus
	Priority  models.Priority
	PolicyID  *primitive.ObjectID
	From      *time.Time // incident.date >=
	To        *time.Time // incident.date <=
	MinAmount *float64
	MaxAmount *float64
	Search    string
}

func (f Filter) bson(owner primitive.ObjectID) bson.M {
	m := bson.M{"user_id": owner}
	if f.Type != "" {
		m["type"] = f.Type
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.Priority != "" {
		m["priority"] = f.Priority
	}
	if f.PolicyID != nil {
		m["policy_id"] = *f.PolicyID
	}
	if f.From != nil || f.To != nil {
		r := bson.M{}
		if f.From != nil {
			r["$gte"] = *f.From
		}
		if f.To != nil {
			r["$lte"] = *f.To
		}
		m["incident.date"] = r
	}
	if f.MinAmount != nil || f.MaxAmount != nil {
		r := bson.M{}
		if f.MinAmount != nil {
			r["$gte"] = *f.MinAmount
		}
		if f.MaxAmount != nil {
			r["$lte"] = *f.MaxAmount
		}
		m["damages.estimated_amount"] = r
	}
	search.AnyField(m, f.Search, "claim_number", "incident.description")
	return m
}

func ownerFilter(id, owner primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "user_id": owner}
}

// Create inserts c, assigning an ID when it has none.
func (s *Store) Create(ctx context.Context, c models.Claim) (models.Claim, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Claim{}, ErrDuplicateNumber
		}
		return models.Claim{}, err
	}
	return c, nil
}

// Get loads one of owner's claims. Returns mongo.ErrNoDocuments if the
// claim does not exist or belongs to someone else.
func (s *Store) Get(ctx context.Context, id, owner primitive.ObjectID) (models.Claim, error) {
	var c models.Claim
	if err := s.c.FindOne(ctx, ownerFilter(id, owner)).Decode(&c); err != nil {
		return models.Claim{}, err
	}
	return c, nil
}

// List returns one page of owner's claims and the total match count.
func (s *Store) List(ctx context.Context, owner primitive.ObjectID, f Filter, pg paging.Params) ([]models.Claim, int64, error) {
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

	out := make([]models.Claim, 0, pg.Limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Changes is a targeted update to one claim. Nil fields and an empty Note
// are left alone.
type Changes struct {
	Incident *models.Incident
	Damages  *models.Damages
	Priority *models.Priority
	Note     string // pushed onto notes.user

	// Entry, when set, is pushed onto the timeline and becomes the claim
	// status. Seen is the timeline length Entry was computed against; the
	// write only lands while the stored timeline still has that length.
	Entry *models.TimelineEntry
	Seen  int
}

// Apply writes ch to one of owner's claims in a single atomic update and
// returns the document after the update. Arrays the caller did not touch
// are never rewritten. Returns ErrTimelineMoved when ch carries an Entry
// and the timeline has grown since it was read.
func (s *Store) Apply(ctx context.Context, id, owner primitive.ObjectID, ch Changes, now time.Time) (models.Claim, error) {
	set := bson.M{"updated_at": now}
	push := bson.M{}
	if ch.Incident != nil {
		set["incident"] = *ch.Incident
	}
	if ch.Damages != nil {
		set["damages"] = *ch.Damages
	}
	if ch.Priority != nil {
		set["priority"] = *ch.Priority
	}
	if ch.Note != "" {
		push["notes."+models.NoteUser] = ch.Note
	}
	upd := bson.M{"$set": set}
	if ch.Entry == nil {
		if len(push) > 0 {
			upd["$push"] = push
		}
		return s.update(ctx, id, owner, upd)
	}
	set["status"] = ch.Entry.Status
	push["timeline"] = *ch.Entry
	upd["$push"] = push
	return s.guarded(ctx, id, owner, ch.Seen, upd)
}

// guarded applies upd only while the claim's timeline holds exactly seen
// entries.
func (s *Store) guarded(ctx context.Context, id, owner primitive.ObjectID, seen int, upd bson.M) (models.Claim, error) {
	filter := ownerFilter(id, owner)
	filter["$expr"] = bson.M{"$eq": bson.A{
		bson.M{"$size": bson.M{"$ifNull": bson.A{"$timeline", bson.A{}}}},
		seen,
	}}
	var c models.Claim
	err := s.c.FindOneAndUpdate(ctx, filter, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Claim{}, err
	}
	n, cerr := s.c.CountDocuments(ctx, ownerFilter(id, owner))
	if cerr != nil {
		return models.Claim{}, cerr
	}
	if n > 0 {
		return models.Claim{}, ErrTimelineMoved
	}
	return models.Claim{}, mongo.ErrNoDocuments
}

// update applies upd to one of owner's claims and returns the document
// after the update.
func (s *Store) update(ctx context.Context, id, owner primitive.ObjectID, upd bson.M) (models.Claim, error) {
	var c models.Claim
	err := s.c.FindOneAndUpdate(ctx, ownerFilter(id, owner), upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return models.Claim{}, err
	}
	return c, nil
}

// AppendTimeline pushes e and sets the claim status to e.Status in one
// atomic update. seen is the timeline length e was computed against; see
// Apply.
func (s *Store) AppendTimeline(ctx context.Context, id, owner primitive.ObjectID, e models.TimelineEntry, seen int, now time.Time) (models.Claim, error) {
	return s.guarded(ctx, id, owner, seen, bson.M{
		"$push": bson.M{"timeline": e},
		"$set":  bson.M{"status": e.Status, "updated_at": now},
	})
}

// AppendDocument pushes document metadata onto the claim.
func (s *Store) AppendDocument(ctx context.Context, id, owner primitive.ObjectID, d models.ClaimDocument, now time.Time) (models.Claim, error) {
	return s.update(ctx, id, owner, bson.M{
		"$push": bson.M{"documents": d},
		"$set":  bson.M{"updated_at": now},
	})
}

// AppendCommunication pushes an entry onto the claim's contact log.
func (s *Store) AppendCommunication(ctx context.Context, id, owner primitive.ObjectID, m models.Communication, now time.Time) (models.Claim, error) {
	return s.update(ctx, id, owner, bson.M{
		"$push": bson.M{"communication": m},
		"$set":  bson.M{"updated_at": now},
	})
}

// AppendNote pushes text onto the named notes bucket. The bucket array is
// created by $push when absent.
func (s *Store) AppendNote(ctx context.Context, id, owner primitive.ObjectID, bucket, text string, now time.Time) (models.Claim, error) {
	return s.update(ctx, id, owner, bson.M{
		"$push": bson.M{"notes." + bucket: text},
		"$set":  bson.M{"updated_at": now},
	})
}

// SetSettlement replaces the claim's settlement record.
func (s *Store) SetSettlement(ctx context.Context, id, owner primitive.ObjectID, st models.Settlement, now time.Time) (models.Claim, error) {
	return s.update(ctx, id, owner, bson.M{
		"$set": bson.M{"settlement": st, "updated_at": now},
	})
}

// StatRows projects every claim of owner down to the fields the stats
// summary needs.
func (s *Store) StatRows(ctx context.Context, owner primitive.ObjectID) ([]models.ClaimStatRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": owner}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$project", Value: bson.M{
			"_id":              0,
			"status":           1,
			"priority":         1,
			"estimated_amount": "$damages.estimated_amount",
			"actual_amount":    bson.M{"$ifNull": bson.A{"$damages.actual_amount", 0}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.ClaimStatRow{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
