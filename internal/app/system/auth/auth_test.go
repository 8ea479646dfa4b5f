package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

type failingUsers struct{}

func (failingUsers) GetByID(context.Context, primitive.ObjectID) (models.User, error) {
	return models.User{}, errors.New("server selection timeout")
}

func newTestIssuer(now time.Time) *Issuer {
	i := NewIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
	i.now = func() time.Time { return now }
	return i
}

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(now)
	uid := primitive.NewObjectID().Hex()

	access, err := iss.Access(uid)
	require.NoError(t, err)
	claims, err := iss.Parse(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = iss.Parse(access, TokenRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not pass as refresh")

	refresh, err := iss.Refresh(uid)
	require.NoError(t, err)
	_, err = iss.Parse(refresh, TokenRefresh)
	assert.NoError(t, err)
}

func TestIssuer_Expired(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(now)
	tok, err := iss.Access(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	iss.now = func() time.Time { return now.Add(time.Hour) }
	_, err = iss.Parse(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_WrongSecret(t *testing.T) {
	tok, err := NewIssuer("one", time.Minute, time.Hour).Access("x")
	require.NoError(t, err)
	_, err = NewIssuer("two", time.Minute, time.Hour).Parse(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Secret123"))
	assert.False(t, CheckPassword(hash, "secret123"))
}

func gateFor(t *testing.T, users UserLookup, now time.Time) (*Gate, *Issuer) {
	t.Helper()
	iss := newTestIssuer(now)
	g := NewGate(iss, users, zap.NewNop())
	g.Now = func() time.Time { return now }
	return g, iss
}

func serve(g *Gate, token string) (*httptest.ResponseRecorder, *SessionUser) {
	var got *SessionUser
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/api/policies", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got
}

func code(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestGate_Require(t *testing.T) {
	now := time.Now()
	lock := now.Add(time.Hour)
	active := models.User{ID: primitive.NewObjectID(), Name: "Salma", Email: "salma@example.ma", IsActive: true, Status: models.TierPremium}
	inactive := models.User{ID: primitive.NewObjectID(), IsActive: false}
	locked := models.User{ID: primitive.NewObjectID(), IsActive: true, LockUntil: &lock}
	users := fakeUsers{active.ID: active, inactive.ID: inactive, locked.ID: locked}

	g, iss := gateFor(t, users, now)
	tokenFor := func(id primitive.ObjectID) string {
		tok, err := iss.Access(id.Hex())
		require.NoError(t, err)
		return tok
	}
	refresh, err := iss.Refresh(active.ID.Hex())
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		rec, u := serve(g, tokenFor(active.ID))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, u)
		assert.Equal(t, active.ID, u.ID)
		assert.Equal(t, models.TierPremium, u.Tier)
	})

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, CodeNoToken},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized, CodeInvalidToken},
		{"refresh as access", refresh, http.StatusUnauthorized, CodeInvalidToken},
		{"unknown user", tokenFor(primitive.NewObjectID()), http.StatusUnauthorized, CodeUserNotFound},
		{"deactivated", tokenFor(inactive.ID), http.StatusUnauthorized, CodeAccountDeactivated},
		{"locked", tokenFor(locked.ID), http.StatusLocked, CodeAccountLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, u := serve(g, tt.token)
			assert.Nil(t, u)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, code(t, rec))
		})
	}
}

func TestGate_Expired(t *testing.T) {
	now := time.Now()
	u := models.User{ID: primitive.NewObjectID(), IsActive: true}
	g, iss := gateFor(t, fakeUsers{u.ID: u}, now)
	tok, err := iss.Access(u.ID.Hex())
	require.NoError(t, err)

	iss.now = func() time.Time { return now.Add(time.Hour) }
	rec, _ := serve(g, tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeTokenExpired, code(t, rec))
}

func TestGate_LookupFailure(t *testing.T) {
	now := time.Now()
	g, iss := gateFor(t, failingUsers{}, now)
	tok, err := iss.Access(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	rec, _ := serve(g, tok)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeVerifyFailed, code(t, rec))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, BearerToken(r))
	r.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", BearerToken(r))
	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(r))
}
