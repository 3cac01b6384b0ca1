// Package cell coerces spreadsheet cell text into numbers.
//
// A cell that cannot be read as a finite number is treated as absent. Callers
// collapse absent values to a zero score at aggregation time; nothing in this
// package returns an error.
package cell

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Number parses s as a finite float64. Surrounding whitespace is ignored and
// full-width digits, signs and decimal points are folded to ASCII first, so
// "１２.５" reads as 12.5. Empty text, NaN and infinities report ok == false.
func Number(s string) (float64, bool) {
	s = strings.TrimSpace(width.Narrow.String(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Format renders v with the fewest digits that read back to the same value.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
