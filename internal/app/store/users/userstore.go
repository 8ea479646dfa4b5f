// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/assurance/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the users collection name.
const Collection = "users"

// DefaultCountry is set on addresses created without one.
const DefaultCountry = "Maroc"

// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
var ErrDuplicateEmail = errors.New("a user with this email already exists")

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection), now: time.Now}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new client account. Tier defaults to New, the account
// starts active, and ClientSince is set to now when empty.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := s.now().UTC()
	u.ID = primitive.NewObjectID()
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.Status == "" {
		u.Status = models.TierNew
	}
	if u.Address.Country == "" {
		u.Address.Country = DefaultCountry
	}
	if u.ClientSince.IsZero() {
		u.ClientSince = now
	}
	u.IsActive = true
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// FailedLogin is an account's lockout state after RecordFailedLogin.
type FailedLogin struct {
	Attempts  int
	LockUntil *time.Time
	Locked    bool // this failure set the lock
}

// RecordFailedLogin counts one more failed password against the account.
// An expired lock first restarts the count. Reaching maxAttempts while
// unlocked locks the account for lockFor. Each step is a single atomic
// update, so concurrent failures are all counted.
func (s *Store) RecordFailedLogin(ctx context.Context, id primitive.ObjectID, maxAttempts int, lockFor time.Duration) (FailedLogin, error) {
	now := s.now().UTC()

	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "lock_until": bson.M{"$lte": now}},
		bson.M{
			"$set":   bson.M{"login_attempts": 0, "updated_at": now},
			"$unset": bson.M{"lock_until": ""},
		})
	if err != nil {
		return FailedLogin{}, err
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"login_attempts": 1},
		"$set": bson.M{"updated_at": now},
	}, after).Decode(&u)
	if err != nil {
		return FailedLogin{}, err
	}
	out := FailedLogin{Attempts: u.LoginAttempts, LockUntil: u.LockUntil}
	if u.LoginAttempts < maxAttempts || u.LockUntil != nil {
		return out, nil
	}

	until := now.Add(lockFor)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "lock_until": nil},
		bson.M{"$set": bson.M{"lock_until": until}})
	if err != nil {
		return FailedLogin{}, err
	}
	if res.ModifiedCount == 1 {
		out.LockUntil = &until
		out.Locked = true
		return out, nil
	}
	// Another failure locked the account first.
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return FailedLogin{}, err
	}
	out.LockUntil = u.LockUntil
	return out, nil
}

// RecordLogin resets the lockout state after a successful login, stamps
// last_login and stores the hash of the newly issued refresh token.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID, refreshHash string) error {
	now := s.now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"login_attempts":     0,
			"last_login":         now,
			"refresh_token_hash": refreshHash,
			"updated_at":         now,
		},
		"$unset": bson.M{"lock_until": ""},
	})
	return err
}

// RotateRefreshToken replaces the stored refresh-token hash only when the
// current one equals oldHash, so a refresh token can be used once. It
// reports whether the swap happened.
func (s *Store) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, oldHash, newHash string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token_hash": oldHash},
		bson.M{"$set": bson.M{"refresh_token_hash": newHash, "updated_at": s.now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ClearRefreshToken forgets the stored refresh token (logout).
func (s *Store) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"refresh_token_hash": ""},
		"$set":   bson.M{"updated_at": s.now().UTC()},
	})
	return err
}

// ProfileUpdate holds the self-service profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *models.Address
}

// UpdateProfile applies upd and returns the updated user.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (models.User, error) {
	set := bson.M{"updated_at": s.now().UTC()}
	if upd.Name != nil {
		set["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		addr := *upd.Address
		if addr.Country == "" {
			addr.Country = DefaultCountry
		}
		set["address"] = addr
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Deactivate flips is_active off. Users are never hard-deleted.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"is_active": false, "updated_at": s.now().UTC()},
		"$unset": bson.M{"refresh_token_hash": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
