// internal/app/system/numbering/numbering.go
package numbering

import (
	"fmt"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for human-readable numbers.
const (
	PolicyPrefix = "POL"
	ClaimPrefix  = "CLM"
)

// SuffixDigits is the length of the random part of a number.
const SuffixDigits = 4

const digits = "0123456789"

// Generator builds numbers of the form PREFIX + YEAR + 4 random digits.
// The zero value draws digits from go-nanoid.
type Generator struct {
	// Digits returns n random decimal digits. Tests replace it.
	Digits func(n int) (string, error)
}

// Next returns a new number for prefix and year, e.g. "POL20250042".
func (g Generator) Next(prefix string, year int) (string, error) {
	draw := g.Digits
	if draw == nil {
		draw = nanoDigits
	}
	suffix, err := draw(SuffixDigits)
	if err != nil {
		return "", fmt.Errorf("numbering: draw digits: %w", err)
	}
	if len(suffix) != SuffixDigits {
		return "", fmt.Errorf("numbering: got %d digits, want %d", len(suffix), SuffixDigits)
	}
	return prefix + strconv.Itoa(year) + suffix, nil
}

func nanoDigits(n int) (string, error) {
	return gonanoid.Generate(digits, n)
}
