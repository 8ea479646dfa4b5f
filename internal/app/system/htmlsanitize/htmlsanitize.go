// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag; only text survives.
var strict = bluemonday.StrictPolicy()

// PlainText strips markup from user-supplied free text (notes, descriptions,
// summaries) and trims surrounding whitespace. Entities escaped by the
// policy are decoded again so stored text stays readable.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainTexts applies PlainText to each element and drops empty results.
func PlainTexts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := PlainText(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}
