// internal/app/system/search/search.go
package search

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxQueryLen bounds the user-supplied search text.
const MaxQueryLen = 100

// Regex returns a case-insensitive "contains" regex for q with all regex
// metacharacters escaped. ok is false when q is blank.
func Regex(q string) (re primitive.Regex, ok bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return primitive.Regex{}, false
	}
	if len(q) > MaxQueryLen {
		q = q[:MaxQueryLen]
	}
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}, true
}

// AnyField adds an $or clause matching q against each field to filter.
// It is a no-op when q is blank.
func AnyField(filter bson.M, q string, fields ...string) {
	re, ok := Regex(q)
	if !ok || len(fields) == 0 {
		return
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	filter["$or"] = or
}
