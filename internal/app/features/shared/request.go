// internal/app/features/shared/request.go
//
// Package shared holds request helpers used by the JSON feature handlers.
package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/assurance/internal/app/system/auth"
	"github.com/dalemusser/assurance/internal/app/system/inputval"
	"github.com/dalemusser/assurance/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Date is a JSON time that also accepts plain calendar dates
// ("2025-01-01"), which are read as midnight UTC.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 timestamps and YYYY-MM-DD dates.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD date as UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// Ptr returns the date as a *time.Time, or nil for a nil Date.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// Owner returns the id of the signed-in user. Routes using it sit behind
// the identity gate, so a missing user is an internal wiring error.
func Owner(r *http.Request) (primitive.ObjectID, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthorized(auth.CodeNoToken, "Authentication required")
	}
	return u.ID, nil
}

// PathID reads the {id} route parameter. A malformed id can never match a
// document, so it is reported as notFound.
func PathID(r *http.Request, notFound *apperr.Error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}

// Decode reads a JSON body into dst and runs its validate tags.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := respond.DecodeJSON(w, r, dst); err != nil {
		return err
	}
	return inputval.Check(dst)
}

// Invalid wraps field errors found after decoding, or returns nil.
func Invalid(errs []apperr.FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return apperr.Validation("Validation failed", errs...)
}

// Filters collects query-string filter parsing errors.
type Filters struct {
	r    *http.Request
	errs []apperr.FieldError
}

// NewFilters starts reading filters from r's query string.
func NewFilters(r *http.Request) *Filters {
	return &Filters{r: r}
}

// String returns the trimmed value of name.
func (f *Filters) String(name string) string {
	return strings.TrimSpace(query.Get(f.r, name))
}

// Date returns the value of name as a date, or nil when absent.
func (f *Filters) Date(name string) *time.Time {
	s := f.String(name)
	if s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		f.errs = append(f.errs, apperr.FieldError{Field: name, Message: "Must be a date (YYYY-MM-DD)."})
		return nil
	}
	return &t
}

// Float returns the value of name as a number, or nil when absent.
func (f *Filters) Float(name string) *float64 {
	s := f.String(name)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.errs = append(f.errs, apperr.FieldError{Field: name, Message: "Must be a number."})
		return nil
	}
	return &n
}

// ObjectID returns the value of name as an ObjectID, or nil when absent.
func (f *Filters) ObjectID(name string) *primitive.ObjectID {
	s := f.String(name)
	if s == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		f.errs = append(f.errs, apperr.FieldError{Field: name, Message: "Must be a valid identifier."})
		return nil
	}
	return &id
}

// OneOf returns the value of name when it is one of allowed.
func (f *Filters) OneOf(name string, allowed ...string) string {
	s := f.String(name)
	if s == "" {
		return ""
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	f.errs = append(f.errs, apperr.FieldError{Field: name, Message: "Must be one of " + strings.Join(allowed, ", ") + "."})
	return ""
}

// Err returns a VALIDATION_ERROR listing every bad filter, or nil.
func (f *Filters) Err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return apperr.Validation("Invalid filters", f.errs...)
}
