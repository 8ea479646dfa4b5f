// internal/app/features/auth/handler.go
package auth

import (
	"time"

	userstore "github.com/dalemusser/assurance/internal/app/store/users"
	"github.com/dalemusser/assurance/internal/app/system/auditlog"
	sysauth "github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/dalemusser/assurance/internal/app/system/metrics"
	"github.com/dalemusser/assurance/internal/app/system/ratelimit"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.uber.org/zap"
)

// Error codes returned by the auth endpoints.
const (
	CodeUserExists          = "USER_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeRefreshRequired     = "REFRESH_TOKEN_REQUIRED"
	CodeRefreshExpired      = "REFRESH_TOKEN_EXPIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeRegistrationFailed  = "REGISTRATION_FAILED"
	CodeLoginFailed         = "LOGIN_FAILED"
	CodeLogoutFailed        = "LOGOUT_FAILED"
	CodeProfileFetchFailed  = "PROFILE_FETCH_FAILED"
	CodeProfileUpdateFailed = "PROFILE_UPDATE_FAILED"
)

// Handler serves /api/auth.
type Handler struct {
	Users   *userstore.Store
	Issuer  *sysauth.Issuer
	Limiter *ratelimit.LoginLimiter
	Audit   *auditlog.Logger
	Metrics *metrics.Recorder
	Log     *zap.Logger
	Now     func() time.Time
}

func NewHandler(users *userstore.Store, issuer *sysauth.Issuer, limiter *ratelimit.LoginLimiter,
	auditLog *auditlog.Logger, rec *metrics.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Issuer:  issuer,
		Limiter: limiter,
		Audit:   auditLog,
		Metrics: rec,
		Log:     logger,
		Now:     time.Now,
	}
}

// tokenPair is the body of a successful sign-in.
type tokenPair struct {
	Message      string       `json:"message"`
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// issue signs a fresh access/refresh pair for u.
func (h *Handler) issue(u models.User) (access, refresh string, err error) {
	access, err = h.Issuer.Access(u.ID.Hex())
	if err != nil {
		return "", "", err
	}
	refresh, err = h.Issuer.Refresh(u.ID.Hex())
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
