// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Identity gate error codes.
const (
	CodeNoToken            = "NO_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeVerifyFailed       = "TOKEN_VERIFICATION_FAILED"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the identity the gate resolves and injects into r.Context().
type SessionUser struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Tier  models.UserTier
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithUser returns r carrying u as the current user. The gate uses it after
// verification; tests use it to skip token handling.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Gate                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// UserLookup loads the account behind a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Gate verifies bearer access tokens and resolves them to active users.
type Gate struct {
	Issuer *Issuer
	Users  UserLookup
	Log    *zap.Logger
	Now    func() time.Time
}

// NewGate constructs a Gate.
func NewGate(issuer *Issuer, users UserLookup, log *zap.Logger) *Gate {
	return &Gate{Issuer: issuer, Users: users, Log: log, Now: time.Now}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Resolve verifies the request's bearer token and loads its user.
func (g *Gate) Resolve(r *http.Request) (*SessionUser, error) {
	raw := BearerToken(r)
	if raw == "" {
		return nil, apperr.Unauthorized(CodeNoToken, "Access token required")
	}
	claims, err := g.Issuer.Parse(raw, TokenAccess)
	if errors.Is(err, ErrTokenExpired) {
		return nil, apperr.Unauthorized(CodeTokenExpired, "Token expired")
	}
	if err != nil {
		return nil, apperr.Unauthorized(CodeInvalidToken, "Invalid token")
	}
	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized(CodeInvalidToken, "Invalid token")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := g.Users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Unauthorized(CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, apperr.Internal(CodeVerifyFailed, err)
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized(CodeAccountDeactivated, "Account deactivated")
	}
	if u.IsLocked(g.Now()) {
		return nil, apperr.Locked(CodeAccountLocked, "Account temporarily locked due to too many failed login attempts")
	}
	return &SessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Tier: u.Status}, nil
}

// Require rejects requests without a valid access token for an active,
// unlocked user, and injects the SessionUser otherwise.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := g.Resolve(r)
		if err != nil {
			respond.Error(w, r, g.Log, err)
			return
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}
