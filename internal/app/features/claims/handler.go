// internal/app/features/claims/handler.go
package claims

import (
	"github.com/dalemusser/assurance/internal/app/lifecycle/claimlife"
	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Handler serves the /api/claims endpoints.
type Handler struct {
	Engine *claimlife.Engine
	Log    *zap.Logger
}

func NewHandler(engine *claimlife.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: engine,
		Log:    logger,
	}
}

var errNotFound = apperr.NotFound(claimlife.CodeNotFound, "Claim not found")
