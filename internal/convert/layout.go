package convert

import (
	"fmt"

	"github.com/sorryxx18/firefit-score-converter/internal/sheet"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

// WarningKind classifies a configuration problem found before scoring.
type WarningKind string

const (
	WarnMissingColumn WarningKind = "missing_column"
	WarnNoDirection   WarningKind = "no_direction"
)

// Warning is raised at most once per run, never per row.
type Warning struct {
	Kind    WarningKind
	Subject string
	Message string
}

// slot binds a standards item to the roster column holding its raw value.
type slot struct {
	column string
	item   string
	col    int
	dir    standards.Direction
	hasDir bool
}

// layout is the roster-specific column plan shared by every row.
type layout struct {
	sex, age, bracket int

	items        []slot
	hangMale     slot
	hangReps     slot
	hangDuration slot

	outputs  []string
	warnings []Warning
}

func (c *Converter) layout(roster *sheet.Table) *layout {
	p := c.prof
	l := &layout{outputs: p.OutputColumns()}

	l.sex = l.column(roster, p.Columns.Sex, "every participant scores 0")
	l.age = l.column(roster, p.Columns.Age, "men without a bracket override score 0")
	l.bracket = l.column(roster, p.Columns.Bracket, "brackets are derived from age")

	for _, it := range p.Items {
		s := c.slot(roster, it.Column, it.Item)
		if s.col < 0 {
			l.warn(WarnMissingColumn, it.Column, fmt.Sprintf("column %q not found, %q will be 0 for every row", it.Column, p.ScoreColumn(it.Item)))
		}
		if !s.hasDir {
			l.warn(WarnNoDirection, it.Item, fmt.Sprintf("item %q has no scoring direction, %q will be 0 for every row", it.Item, p.ScoreColumn(it.Item)))
		}
		l.items = append(l.items, s)
	}

	d := p.Dual
	l.hangMale = c.slot(roster, d.ColumnMale, d.ItemMale)
	l.hangReps = c.slot(roster, d.ColumnReps, d.ItemReps)
	l.hangDuration = c.slot(roster, d.ColumnDuration, d.ItemDuration)

	seenCol, seenItem := make(map[string]bool), make(map[string]bool)
	for _, s := range []slot{l.hangMale, l.hangReps, l.hangDuration} {
		if s.col < 0 && !seenCol[s.column] {
			seenCol[s.column] = true
			l.warn(WarnMissingColumn, s.column, fmt.Sprintf("column %q not found, hang scores from it will be 0", s.column))
		}
		if !s.hasDir && !seenItem[s.item] {
			seenItem[s.item] = true
			l.warn(WarnNoDirection, s.item, fmt.Sprintf("item %q has no scoring direction, hang scores from it will be 0", s.item))
		}
	}
	return l
}

func (c *Converter) slot(roster *sheet.Table, column, item string) slot {
	s := slot{column: column, item: item, col: -1}
	if idx, ok := roster.Index(column); ok {
		s.col = idx
	}
	s.dir, s.hasDir = c.prof.Direction(item)
	return s
}

func (l *layout) column(roster *sheet.Table, name, consequence string) int {
	idx, ok := roster.Index(name)
	if !ok {
		l.warn(WarnMissingColumn, name, fmt.Sprintf("column %q not found, %s", name, consequence))
		return -1
	}
	return idx
}

func (l *layout) warn(kind WarningKind, subject, msg string) {
	l.warnings = append(l.warnings, Warning{Kind: kind, Subject: subject, Message: msg})
}
