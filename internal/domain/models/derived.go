// internal/domain/models/derived.go
package models

import (
	"math"
	"time"
)

// Day is the unit used by the day-count helpers.
const Day = 24 * time.Hour

// DaysCeil returns ceil((to - from) / 1 day). The result is negative when
// to is before from.
func DaysCeil(from, to time.Time) int {
	return int(math.Ceil(float64(to.Sub(from)) / float64(Day)))
}
