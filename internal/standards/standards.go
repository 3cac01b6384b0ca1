// Package standards holds the scoring-standard table and resolves raw
// measurements into item scores.
//
// Each (sex, bracket, item) combination owns several entries that together
// form a stepwise curve. A measurement earns the highest score whose
// threshold it clears. The table is read-only after Load and safe for
// concurrent lookups.
package standards

import (
	"errors"
	"fmt"

	"github.com/sorryxx18/firefit-score-converter/internal/cell"
	"github.com/sorryxx18/firefit-score-converter/internal/sheet"
)

// ErrMissingColumn is returned by Load when a required column is absent.
var ErrMissingColumn = errors.New("standards table missing column")

// Direction says which side of a threshold earns its score.
type Direction int

const (
	// HigherIsBetter items score when the raw value is at least the threshold.
	HigherIsBetter Direction = iota + 1
	// LowerIsBetter items, such as timed runs, score when the raw value is at most the threshold.
	LowerIsBetter
)

func (d Direction) String() string {
	switch d {
	case HigherIsBetter:
		return "higher is better"
	case LowerIsBetter:
		return "lower is better"
	}
	return "unknown"
}

// Meets reports whether raw clears threshold in direction d.
func (d Direction) Meets(raw, threshold float64) bool {
	switch d {
	case HigherIsBetter:
		return threshold <= raw
	case LowerIsBetter:
		return threshold >= raw
	}
	return false
}

// Columns names the standards-table header cells.
type Columns struct {
	Sex       string
	Bracket   string
	Item      string
	Threshold string
	Score     string
}

// Entry is one step of a scoring curve.
type Entry struct {
	Sex       string
	Bracket   string
	Item      string
	Threshold float64
	Score     float64
}

// Key selects one scoring curve. Fields compare by exact string equality.
type Key struct {
	Sex     string
	Bracket string
	Item    string
}

// Table is the loaded standards table.
type Table struct {
	entries map[Key][]Entry
	order   []Key

	// Dropped counts rows whose threshold or score was not a number.
	Dropped int
}

// Load builds a Table from a spreadsheet. Rows with an unparseable threshold
// or score are skipped and counted rather than failing the load.
func Load(t *sheet.Table, cols Columns) (*Table, error) {
	idx := make(map[string]int, 5)
	for _, name := range []string{cols.Sex, cols.Bracket, cols.Item, cols.Threshold, cols.Score} {
		i, ok := t.Index(name)
		if !ok {
			return nil, fmt.Errorf("standards.Load: %w %q", ErrMissingColumn, name)
		}
		idx[name] = i
	}

	tbl := &Table{entries: make(map[Key][]Entry)}
	for _, row := range t.Rows {
		threshold, okT := cell.Number(sheet.Cell(row, idx[cols.Threshold]))
		score, okS := cell.Number(sheet.Cell(row, idx[cols.Score]))
		if !okT || !okS {
			tbl.Dropped++
			continue
		}
		tbl.Add(Entry{
			Sex:       sheet.Cell(row, idx[cols.Sex]),
			Bracket:   sheet.Cell(row, idx[cols.Bracket]),
			Item:      sheet.Cell(row, idx[cols.Item]),
			Threshold: threshold,
			Score:     score,
		})
	}
	return tbl, nil
}

// New builds a Table from entries already in memory.
func New(entries ...Entry) *Table {
	tbl := &Table{entries: make(map[Key][]Entry)}
	for _, e := range entries {
		tbl.Add(e)
	}
	return tbl
}

// Add appends one entry. It must not be called once lookups have started.
func (t *Table) Add(e Entry) {
	k := Key{Sex: e.Sex, Bracket: e.Bracket, Item: e.Item}
	if _, ok := t.entries[k]; !ok {
		t.order = append(t.order, k)
	}
	t.entries[k] = append(t.entries[k], e)
}

// Len returns the number of usable entries.
func (t *Table) Len() int {
	n := 0
	for _, es := range t.entries {
		n += len(es)
	}
	return n
}

// Keys returns every curve key in the order first seen.
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.order))
	copy(out, t.order)
	return out
}

// Resolve scores one raw measurement.
//
// It returns 0 when raw, sex or bracket is empty, when raw is not a number,
// when no curve matches, or when raw clears no threshold. Otherwise it
// returns the highest score among the entries raw clears. The result is
// never negative.
func (t *Table) Resolve(sex, bracket, item, raw string, d Direction) float64 {
	if sex == "" || bracket == "" {
		return 0
	}
	v, ok := cell.Number(raw)
	if !ok {
		return 0
	}

	best, found := 0.0, false
	for _, e := range t.entries[Key{Sex: sex, Bracket: bracket, Item: item}] {
		if !d.Meets(v, e.Threshold) {
			continue
		}
		if !found || e.Score > best {
			best, found = e.Score, true
		}
	}
	if !found || best < 0 {
		return 0
	}
	return best
}
