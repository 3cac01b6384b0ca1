// Package convert scores a roster against a standards table.
//
// Every row is independent: the bracket is resolved once, each regular item
// is looked up on its own, the hang item follows its sex-specific path, and
// the total is the sum of all item scores. Missing or unreadable values score
// zero; only context cancellation stops a run.
package convert

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sorryxx18/firefit-score-converter/internal/bracket"
	"github.com/sorryxx18/firefit-score-converter/internal/cell"
	"github.com/sorryxx18/firefit-score-converter/internal/profile"
	"github.com/sorryxx18/firefit-score-converter/internal/sheet"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWorkers scores rows on up to n goroutines. Values below 2 keep the
// run sequential. Output order never depends on n.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Converter applies one profile and one standards table to rosters.
type Converter struct {
	prof    *profile.Profile
	table   *standards.Table
	labels  bracket.Labels
	logger  *slog.Logger
	workers int
}

// New creates a Converter. The profile and table are shared read-only.
func New(prof *profile.Profile, table *standards.Table, opts ...Option) *Converter {
	c := &Converter{
		prof:    prof,
		table:   table,
		labels:  prof.BracketLabels(),
		logger:  slog.New(slog.DiscardHandler),
		workers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Participant holds the values derived for one roster row.
type Participant struct {
	Sex      bracket.Sex
	Bracket  bracket.Bracket
	Resolved bool

	// Scores follows the profile's item order.
	Scores []float64
	Hang   float64
	Total  float64
}

// Run scores every row of roster and returns the roster with score columns
// and a total column added. The input table is not modified.
func (c *Converter) Run(ctx context.Context, roster *sheet.Table) (*sheet.Table, Summary, error) {
	l := c.layout(roster)
	for _, w := range l.warnings {
		c.logger.Warn(w.Message, "kind", string(w.Kind), "subject", w.Subject)
	}

	people := make([]Participant, len(roster.Rows))
	if c.workers <= 1 {
		for i, row := range roster.Rows {
			if err := ctx.Err(); err != nil {
				return nil, Summary{}, fmt.Errorf("convert.Run: %w", err)
			}
			people[i] = c.score(l, row)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for i, row := range roster.Rows {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				people[i] = c.score(l, row)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, Summary{}, fmt.Errorf("convert.Run: %w", err)
		}
	}

	out := c.render(roster, l, people)
	return out, c.summarize(l, people), nil
}

func (c *Converter) score(l *layout, row []string) Participant {
	p := Participant{
		Sex:    bracket.ParseSex(sheet.Cell(row, l.sex), c.labels),
		Scores: make([]float64, len(l.items)),
	}
	p.Bracket, p.Resolved = bracket.Resolve(p.Sex, sheet.Cell(row, l.age), sheet.Cell(row, l.bracket), c.labels)

	sex := c.labels.Label(p.Sex)
	for i, it := range l.items {
		if it.col < 0 || !it.hasDir {
			continue
		}
		p.Scores[i] = c.table.Resolve(sex, string(p.Bracket), it.item, sheet.Cell(row, it.col), it.dir)
	}
	p.Hang = c.scoreHang(l, p, row)

	for _, s := range p.Scores {
		p.Total += s
	}
	p.Total += p.Hang
	return p
}

// scoreHang scores the dual-mode hang item. Men are scored on the hold
// count. Women are scored on the rep count when it is above zero, with the
// hold time ignored, and on the hold time otherwise.
func (c *Converter) scoreHang(l *layout, p Participant, row []string) float64 {
	sex := c.labels.Label(p.Sex)
	switch p.Sex {
	case bracket.SexMale:
		return c.resolveSlot(l.hangMale, sex, p.Bracket, row)
	case bracket.SexFemale:
		if reps, ok := cell.Number(sheet.Cell(row, l.hangReps.col)); ok && reps > 0 {
			return c.resolveSlot(l.hangReps, sex, p.Bracket, row)
		}
		return c.resolveSlot(l.hangDuration, sex, p.Bracket, row)
	}
	return 0
}

func (c *Converter) resolveSlot(s slot, sex string, b bracket.Bracket, row []string) float64 {
	if s.col < 0 || !s.hasDir {
		return 0
	}
	return c.table.Resolve(sex, string(b), s.item, sheet.Cell(row, s.col), s.dir)
}

// render copies the roster and writes score columns. A score column that
// already exists in the roster is overwritten in place, otherwise it is
// appended after the original columns.
func (c *Converter) render(roster *sheet.Table, l *layout, people []Participant) *sheet.Table {
	header := append([]string(nil), roster.Header...)
	targets := make([]int, len(l.outputs))
	for i, name := range l.outputs {
		if idx, ok := roster.Index(name); ok {
			targets[i] = idx
			continue
		}
		targets[i] = len(header)
		header = append(header, name)
	}

	rows := make([][]string, len(roster.Rows))
	for i, row := range roster.Rows {
		r := make([]string, len(header))
		copy(r, row)
		p := people[i]
		values := append(append([]float64(nil), p.Scores...), p.Hang, p.Total)
		for j, v := range values {
			r[targets[j]] = cell.Format(v)
		}
		rows[i] = r
	}
	return roster.Derive(header, rows)
}
