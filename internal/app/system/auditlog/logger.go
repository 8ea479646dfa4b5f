// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/assurance/internal/app/store/audit"
	"github.com/dalemusser/assurance/internal/app/system/ratelimit"
	"github.com/dalemusser/assurance/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings per category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration, one destination per category.
type Config struct {
	Auth   string
	Policy string
	Claim  string
}

// Logger writes audit events to MongoDB (via audit.Store) and/or zap.
// A nil *Logger is a no-op so tests and tools can pass nil.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryPolicy:
		s = l.config.Policy
	case audit.CategoryClaim:
		s = l.config.Claim
	}
	if s == "" {
		return All
	}
	return s
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.EntityID != nil {
		fields = append(fields, zap.String("entity_id", event.EntityID.Hex()))
	}
	if event.EntityNumber != "" {
		fields = append(fields, zap.String("entity_number", event.EntityNumber))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an event according to its category's destination setting.
// Storage failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == Off {
		return
	}
	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Auth records an authentication event tied to an HTTP request. userID may
// be nil (e.g. login attempt for an unknown email).
func (l *Logger) Auth(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, success bool, reason string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
		Details:       details,
	})
}

// Policy records a successful policy lifecycle event.
func (l *Logger) Policy(ctx context.Context, eventType string, p models.Policy, details map[string]string) {
	userID, policyID := p.UserID, p.ID
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryPolicy,
		EventType:    eventType,
		UserID:       &userID,
		EntityID:     &policyID,
		EntityNumber: p.PolicyNumber,
		Success:      true,
		Details:      details,
	})
}

// Claim records a successful claim lifecycle event.
func (l *Logger) Claim(ctx context.Context, eventType string, c models.Claim, details map[string]string) {
	userID, claimID := c.UserID, c.ID
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryClaim,
		EventType:    eventType,
		UserID:       &userID,
		EntityID:     &claimID,
		EntityNumber: c.ClaimNumber,
		Success:      true,
		Details:      details,
	})
}
