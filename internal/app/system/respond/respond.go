// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/limits"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as a JSON error response. Internal errors are logged with
// their cause and sent with a generic message only.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e := apperr.As(err)
	status := e.Status()
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("code", e.Code),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(e.Err),
		)
	}
	JSON(w, status, errorBody{
		Error:   e.Title(),
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// DecodeJSON reads a JSON request body into dst. Malformed bodies become
// validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Validation("Malformed JSON body")
	}
	return nil
}

// NotFound is the JSON catch-all for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, errorBody{
		Error: "Route not found",
		Code:  "ROUTE_NOT_FOUND",
	})
}

// MethodNotAllowed is the JSON response for a known route with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, errorBody{
		Error: "Method not allowed",
		Code:  "METHOD_NOT_ALLOWED",
	})
}
