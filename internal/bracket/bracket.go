// Package bracket resolves the age bracket used to select a participant's
// rows from the standards table.
package bracket

import (
	"math"
	"strings"

	"github.com/sorryxx18/firefit-score-converter/internal/cell"
)

// Sex is the participant sex as understood by the scoring engine.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	}
	return "unknown"
}

// Bracket is a standards-table age bracket label.
type Bracket string

// Male brackets. Each lower bound is inclusive.
const (
	Male20to29 Bracket = "20-29"
	Male30to39 Bracket = "30-39"
	Male40to49 Bracket = "40-49"
	Male50Plus Bracket = "50+"
)

// DefaultUnstratified is the catch-all bracket used for every female participant.
const DefaultUnstratified Bracket = "不分年齡"

// MaleBrackets lists the accepted male bracket labels in age order.
var MaleBrackets = []Bracket{Male20to29, Male30to39, Male40to49, Male50Plus}

// Labels holds the roster and standards-table spellings the resolver relies on.
type Labels struct {
	Male         string
	Female       string
	Unstratified Bracket
}

// DefaultLabels matches the roster convention of the scoring standard.
var DefaultLabels = Labels{
	Male:         "男",
	Female:       "女",
	Unstratified: DefaultUnstratified,
}

// Label returns the roster spelling of s, or "" for SexUnknown.
func (l Labels) Label(s Sex) string {
	switch s {
	case SexMale:
		return l.Male
	case SexFemale:
		return l.Female
	}
	return ""
}

// ParseSex maps a raw roster cell to a Sex. Surrounding whitespace is ignored;
// anything other than the configured labels is SexUnknown.
func ParseSex(raw string, l Labels) Sex {
	switch strings.TrimSpace(raw) {
	case "":
		return SexUnknown
	case l.Male:
		return SexMale
	case l.Female:
		return SexFemale
	}
	return SexUnknown
}

// IsMaleBracket reports whether label is one of the canonical male brackets.
func IsMaleBracket(label string) bool {
	for _, b := range MaleBrackets {
		if string(b) == label {
			return true
		}
	}
	return false
}

// ForAge maps a male participant's age to a bracket. Fractional ages are
// truncated toward zero before the range check.
func ForAge(age float64) Bracket {
	years := int(math.Trunc(age))
	switch {
	case years < 30:
		return Male20to29
	case years < 40:
		return Male30to39
	case years < 50:
		return Male40to49
	default:
		return Male50Plus
	}
}

// Resolve determines the bracket for one participant.
//
// Female participants always get the unstratified bracket. Male participants
// use a manually entered bracket when it is one of the canonical labels after
// trimming, and otherwise fall back to the numeric age. ok is false when no
// bracket can be derived; that is never an error.
func Resolve(sex Sex, age, manual string, l Labels) (Bracket, bool) {
	switch sex {
	case SexFemale:
		return l.Unstratified, true
	case SexMale:
		if m := strings.TrimSpace(manual); IsMaleBracket(m) {
			return Bracket(m), true
		}
		if v, ok := cell.Number(age); ok {
			return ForAge(v), true
		}
	}
	return "", false
}
