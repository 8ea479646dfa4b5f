// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/assurance/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Page size bounds for list endpoints.
const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxSkip caps how deep a page may reach, (page-1)*limit.
	MaxSkip = 1_000_000
)

// Sort orders.
const (
	Asc  = "asc"
	Desc = "desc"
)

// SortFields maps the sortBy names a client may send to document fields.
type SortFields map[string]string

// Params is a validated page request.
type Params struct {
	Page      int
	Limit     int
	SortBy    string // client name, already checked against the allow-list
	SortOrder string // "asc" or "desc"
}

// Skip is the number of documents to skip for this page.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// FindOptions returns sort/skip/limit options for a Mongo Find. _id is added
// as a tiebreaker so pages are stable.
func (p Params) FindOptions(fields SortFields) *options.FindOptions {
	dir := -1
	if p.SortOrder == Asc {
		dir = 1
	}
	sort := bson.D{{Key: fields[p.SortBy], Value: dir}}
	if fields[p.SortBy] != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: dir})
	}
	return options.Find().
		SetSort(sort).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
}

// Parse reads page, limit, sortBy and sortOrder from the query string.
// Missing values take defaults; present but invalid values are rejected
// with VALIDATION_ERROR.
func Parse(r *http.Request, fields SortFields, defaultSort string) (Params, error) {
	p := Params{Page: 1, Limit: DefaultLimit, SortBy: defaultSort, SortOrder: Desc}
	var errs []apperr.FieldError

	if s := query.Get(r, "page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			errs = append(errs, apperr.FieldError{Field: "page", Message: "Page must be a whole number of at least 1."})
		} else {
			p.Page = n
		}
	}
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxLimit {
			errs = append(errs, apperr.FieldError{Field: "limit", Message: "Limit must be between 1 and 100."})
		} else {
			p.Limit = n
		}
	}
	// Compared by division so a huge page cannot overflow the product.
	if len(errs) == 0 && p.Page-1 > MaxSkip/p.Limit {
		errs = append(errs, apperr.FieldError{Field: "page", Message: "Page is past the last reachable page for this limit."})
	}
	if s := query.Get(r, "sortBy"); s != "" {
		if _, ok := fields[s]; !ok {
			errs = append(errs, apperr.FieldError{Field: "sortBy", Message: "Sort field is not allowed."})
		} else {
			p.SortBy = s
		}
	}
	if s := strings.ToLower(query.Get(r, "sortOrder")); s != "" {
		if s != Asc && s != Desc {
			errs = append(errs, apperr.FieldError{Field: "sortOrder", Message: "Sort order must be asc or desc."})
		} else {
			p.SortOrder = s
		}
	}

	if len(errs) > 0 {
		return Params{}, apperr.Validation("Invalid pagination parameters", errs...)
	}
	return p, nil
}

// Pagination is the page metadata returned with every list.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// Build computes page metadata for total matching items.
func Build(p Params, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		CurrentPage:  p.Page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: p.Limit,
		HasNextPage:  p.Page < pages,
		HasPrevPage:  p.Page > 1,
	}
}
