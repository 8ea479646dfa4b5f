// internal/app/features/errors/errors.go
//
// Package errors holds the JSON fallbacks wired into the router: unknown
// routes, wrong verbs and recovered panics.
package errors

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler is the errors feature handler. No DB needed.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound answers unknown routes with ROUTE_NOT_FOUND.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.NotFound(w, r)
}

// MethodNotAllowed answers a known path requested with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.MethodNotAllowed(w, r)
}

// Recover turns a panic in a handler into a logged 500 JSON response.
// http.ErrAbortHandler is re-panicked so net/http can drop the connection.
func (h *Handler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.Log.Error("panic recovered",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			respond.Error(w, r, h.Log, apperr.Internal(apperr.CodeInternal, fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}
