// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserTier is the commercial tier of a client.
type UserTier string

const (
	TierNew      UserTier = "New"
	TierStandard UserTier = "Standard"
	TierPremium  UserTier = "Premium"
	TierVIP      UserTier = "VIP"
)

// Address is a postal address.
type Address struct {
	Street     string `bson:"street,omitempty" json:"street,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

// User is a client account. Users are deactivated, never deleted.
//
// NOTE:
//   - Email is stored lower-cased; the unique index relies on it.
//   - PasswordHash and RefreshTokenHash never leave the server.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"password_hash" json:"-"`
	Phone            string             `bson:"phone" json:"phone"`
	Address          Address            `bson:"address" json:"address"`
	ClientSince      time.Time          `bson:"client_since" json:"clientSince"`
	Status           UserTier           `bson:"status" json:"status"`
	IsActive         bool               `bson:"is_active" json:"isActive"`
	EmailVerified    bool               `bson:"email_verified" json:"emailVerified"`
	PhoneVerified    bool               `bson:"phone_verified" json:"phoneVerified"`
	RefreshTokenHash string             `bson:"refresh_token_hash,omitempty" json:"-"`
	LastLogin        *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	LoginAttempts    int                `bson:"login_attempts" json:"-"`
	LockUntil        *time.Time         `bson:"lock_until,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsLocked reports whether the account is locked at the given time.
func (u User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}
