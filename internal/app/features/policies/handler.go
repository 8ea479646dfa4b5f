// internal/app/features/policies/handler.go
package policies

import (
	"github.com/dalemusser/assurance/internal/app/lifecycle/policylife"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Handler serves the /api/policies endpoints.
type Handler struct {
	Engine *policylife.Engine
	Log    *zap.Logger
}

// NewHandler constructs a policies Handler around the lifecycle engine.
func NewHandler(engine *policylife.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: engine,
		Log:    logger,
	}
}

var errNotFound = apperr.NotFound(policylife.CodeNotFound, "Policy not found")
