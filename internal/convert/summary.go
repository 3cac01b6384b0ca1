package convert

import (
	"math"
	"sort"

	"github.com/sorryxx18/firefit-score-converter/internal/bracket"
)

// Summary describes a finished run.
type Summary struct {
	Rows       int
	Unresolved int
	UnknownSex int

	// ZeroScores counts rows scoring 0, keyed by output column.
	ZeroScores map[string]int
	Warnings   []Warning

	// Totals holds every participant's total in roster order.
	Totals []float64
}

// ItemColumns returns the keys of ZeroScores in a stable order.
func (s Summary) ItemColumns() []string {
	cols := make([]string, 0, len(s.ZeroScores))
	for k := range s.ZeroScores {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// TotalRange returns the lowest, highest and mean total. All are zero for an
// empty roster.
func (s Summary) TotalRange() (lo, hi, mean float64) {
	if len(s.Totals) == 0 {
		return 0, 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, t := range s.Totals {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
		sum += t
	}
	return lo, hi, sum / float64(len(s.Totals))
}

func (c *Converter) summarize(l *layout, people []Participant) Summary {
	s := Summary{
		Rows:       len(people),
		ZeroScores: make(map[string]int, len(l.outputs)),
		Warnings:   l.warnings,
		Totals:     make([]float64, len(people)),
	}
	for _, col := range l.outputs[:len(l.outputs)-1] {
		s.ZeroScores[col] = 0
	}
	hangCol := c.prof.Dual.ScoreColumn

	for i, p := range people {
		if !p.Resolved {
			s.Unresolved++
		}
		if p.Sex == bracket.SexUnknown {
			s.UnknownSex++
		}
		for j, v := range p.Scores {
			if v == 0 {
				s.ZeroScores[l.outputs[j]]++
			}
		}
		if p.Hang == 0 {
			s.ZeroScores[hangCol]++
		}
		s.Totals[i] = p.Total
	}
	return s
}
