// internal/app/features/auth/login.go
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/assurance/internal/app/features/shared"
	"github.com/dalemusser/assurance/internal/app/store/audit"
	userstore "github.com/dalemusser/assurance/internal/app/store/users"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	sysauth "github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/assurance/internal/app/system/timeouts"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errInvalidCredentials = apperr.Unauthorized(CodeInvalidCredentials, "Invalid credentials")

// HandleRegister handles POST /api/auth/register. The new account is
// signed in straight away.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	hash, err := sysauth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeRegistrationFailed, err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Address:      req.Address.address(),
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, r, h.Log, apperr.Duplicate(CodeUserExists, "User already exists with this email"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeRegistrationFailed, err))
		return
	}

	access, refresh, err := h.issue(u)
	if err == nil {
		err = h.Users.RecordLogin(ctx, u.ID, sysauth.HashToken(refresh))
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeRegistrationFailed, err))
		return
	}

	h.Audit.Auth(ctx, r, audit.EventUserRegistered, &u.ID, true, "", nil)
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	respond.JSON(w, http.StatusCreated, tokenPair{
		Message:      "User registered successfully",
		User:         &u,
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// loginFailed records a rejected login and answers with err.
func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, event string, userID *primitive.ObjectID, err *apperr.Error) {
	h.Metrics.LoginFailure(err.Code)
	h.Audit.Auth(r.Context(), r, event, userID, false, err.Code, nil)
	respond.Error(w, r, h.Log, err)
}

// HandleLogin handles POST /api/auth/login.
//
// Checks run in order: request throttle, account existence, lock, active
// flag, password. Each wrong password counts toward the account lockout.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := userstore.NormalizeEmail(req.Email)

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.loginFailed(w, r, audit.EventLoginFailedRateLimit, nil, apperr.RateLimited(reason))
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.loginFailed(w, r, audit.EventLoginFailedUserNotFound, nil, errInvalidCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeLoginFailed, err))
		return
	}

	now := h.Now().UTC()
	if u.IsLocked(now) {
		h.loginFailed(w, r, audit.EventLoginFailedLocked, &u.ID,
			apperr.Locked(sysauth.CodeAccountLocked, "Account is temporarily locked due to too many failed login attempts"))
		return
	}
	if !u.IsActive {
		h.loginFailed(w, r, audit.EventLoginFailedDeactivated, &u.ID,
			apperr.Unauthorized(sysauth.CodeAccountDeactivated, "Account is deactivated"))
		return
	}

	if !sysauth.CheckPassword(u.PasswordHash, req.Password) {
		st, err := h.Users.RecordFailedLogin(ctx, u.ID, sysauth.MaxLoginAttempts, sysauth.LockDuration)
		if err != nil {
			h.Log.Error("record failed login", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		if st.Locked {
			h.Audit.Auth(ctx, r, audit.EventAccountLocked, &u.ID, false, "", map[string]string{
				"until": st.LockUntil.Format(time.RFC3339),
			})
		}
		h.loginFailed(w, r, audit.EventLoginFailedPassword, &u.ID, errInvalidCredentials)
		return
	}

	access, refresh, err := h.issue(u)
	if err == nil {
		err = h.Users.RecordLogin(ctx, u.ID, sysauth.HashToken(refresh))
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeLoginFailed, err))
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
	h.Audit.Auth(ctx, r, audit.EventLoginSuccess, &u.ID, true, "", nil)
	respond.JSON(w, http.StatusOK, tokenPair{
		Message:      "Login successful",
		User:         &u,
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// HandleRefresh handles POST /api/auth/refresh. A refresh token is good for
// one use: the stored hash is swapped for the new token's.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.RefreshToken == "" {
		respond.Error(w, r, h.Log, &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    CodeRefreshRequired,
			Message: "Refresh token is required",
		})
		return
	}

	invalid := apperr.Unauthorized(CodeInvalidRefreshToken, "Invalid refresh token")
	claims, err := h.Issuer.Parse(req.RefreshToken, sysauth.TokenRefresh)
	if errors.Is(err, sysauth.ErrTokenExpired) {
		respond.Error(w, r, h.Log, apperr.Unauthorized(CodeRefreshExpired, "Refresh token expired"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, invalid)
		return
	}
	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		respond.Error(w, r, h.Log, invalid)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "refresh")
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		respond.Error(w, r, h.Log, invalid)
		return
	}
	access, refresh, err := h.issue(u)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeLoginFailed, err))
		return
	}
	swapped, err := h.Users.RotateRefreshToken(ctx, uid, sysauth.HashToken(req.RefreshToken), sysauth.HashToken(refresh))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeLoginFailed, err))
		return
	}
	if !swapped {
		respond.Error(w, r, h.Log, invalid)
		return
	}

	h.Audit.Auth(ctx, r, audit.EventTokenRefreshed, &uid, true, "", nil)
	respond.JSON(w, http.StatusOK, tokenPair{
		Message:      "Token refreshed successfully",
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// HandleLogout handles POST /api/auth/logout by forgetting the stored
// refresh token. Access tokens stay valid until they expire.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.Owner(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	if err := h.Users.ClearRefreshToken(ctx, owner); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(CodeLogoutFailed, err))
		return
	}
	h.Audit.Auth(ctx, r, audit.EventLogout, &owner, true, "", nil)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
