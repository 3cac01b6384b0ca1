// Package profile loads the item and column mapping used to score a roster.
//
// A profile names the roster columns, the standards-table columns, the test
// items with their scoring direction, and the dual-mode hang item. Mappings
// have changed between revisions of the scoring worksheet, so they live in
// versioned YAML rather than in code.
package profile

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sorryxx18/firefit-score-converter/internal/bracket"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

const (
	DefaultName        = "standard"
	defaultScoreSuffix = "_得分"
	defaultTotalColumn = "總分"
)

var (
	// ErrUnknownProfile is returned by LoadBuiltin for names with no embedded file.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrInvalidProfile wraps structural problems found while validating a profile.
	ErrInvalidProfile = errors.New("invalid profile")
)

var validate = validator.New()

// Profile is one revision of the scoring mapping.
type Profile struct {
	Name             string            `yaml:"name" validate:"required"`
	Version          int               `yaml:"version" validate:"min=1"`
	Description      string            `yaml:"description"`
	Columns          RosterColumns     `yaml:"columns"`
	StandardsColumns StandardsColumns  `yaml:"standards_columns"`
	Labels           Labels            `yaml:"labels"`
	Directions       map[string]string `yaml:"directions" validate:"dive,keys,required,endkeys,oneof=higher lower"`
	Items            []Item            `yaml:"items" validate:"required,min=1,unique=Item,dive"`
	Dual             Dual              `yaml:"dual"`
	ScoreSuffix      string            `yaml:"score_suffix"`
	TotalColumn      string            `yaml:"total_column"`
}

// RosterColumns names the participant columns of the input roster.
type RosterColumns struct {
	Sex     string `yaml:"sex" validate:"required"`
	Age     string `yaml:"age" validate:"required"`
	Bracket string `yaml:"bracket" validate:"required"`
}

// StandardsColumns names the five columns of the standards table.
type StandardsColumns struct {
	Sex       string `yaml:"sex" validate:"required"`
	Bracket   string `yaml:"bracket" validate:"required"`
	Item      string `yaml:"item" validate:"required"`
	Threshold string `yaml:"threshold" validate:"required"`
	Score     string `yaml:"score" validate:"required"`
}

// Labels are the sex and bracket spellings shared by roster and standards.
type Labels struct {
	Male         string `yaml:"male" validate:"required"`
	Female       string `yaml:"female" validate:"required,nefield=Male"`
	Unstratified string `yaml:"unstratified" validate:"required"`
}

// Item maps a roster measurement column to a standards-table item.
type Item struct {
	Column string `yaml:"column" validate:"required"`
	Item   string `yaml:"item" validate:"required"`
}

// Dual configures the hang item, which men take as a single hold count and
// women take as either a rep count or a hold time.
type Dual struct {
	ColumnMale     string `yaml:"column_male" validate:"required"`
	ItemMale       string `yaml:"item_male" validate:"required"`
	ColumnReps     string `yaml:"column_reps" validate:"required"`
	ItemReps       string `yaml:"item_reps" validate:"required"`
	ColumnDuration string `yaml:"column_duration" validate:"required"`
	ItemDuration   string `yaml:"item_duration" validate:"required"`
	ScoreColumn    string `yaml:"score_column" validate:"required"`
}

// LoadBuiltin loads an embedded profile by name.
func LoadBuiltin(name string) (*Profile, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: %w %q", ErrUnknownProfile, name)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadBuiltin: %q: %w", name, err)
	}
	return p, nil
}

// LoadFile loads an operator-supplied profile from disk.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadFile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile.LoadFile: %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile, fills defaults and validates it.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.ScoreSuffix == "" {
		p.ScoreSuffix = defaultScoreSuffix
	}
	if p.TotalColumn == "" {
		p.TotalColumn = defaultTotalColumn
	}
	if p.Labels.Unstratified == "" {
		p.Labels.Unstratified = string(bracket.DefaultUnstratified)
	}
}

// Validate checks required fields and that the generated output columns are
// distinct. An item missing from Directions is allowed: it scores zero at
// run time with a warning.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	seen := make(map[string]bool)
	for _, col := range p.OutputColumns() {
		if seen[col] {
			return fmt.Errorf("%w: output column %q is generated twice", ErrInvalidProfile, col)
		}
		seen[col] = true
	}
	return nil
}

// Direction reports how raw values of item compare against thresholds.
// ok is false when the item has no configured direction.
func (p *Profile) Direction(item string) (standards.Direction, bool) {
	switch p.Directions[item] {
	case "higher":
		return standards.HigherIsBetter, true
	case "lower":
		return standards.LowerIsBetter, true
	}
	return 0, false
}

// ScoreColumn is the output column name for a regular item.
func (p *Profile) ScoreColumn(item string) string {
	return item + p.ScoreSuffix
}

// OutputColumns lists the columns appended to the roster, in output order.
func (p *Profile) OutputColumns() []string {
	cols := make([]string, 0, len(p.Items)+2)
	for _, it := range p.Items {
		cols = append(cols, p.ScoreColumn(it.Item))
	}
	return append(cols, p.Dual.ScoreColumn, p.TotalColumn)
}

// BracketLabels converts the profile labels for the bracket resolver.
func (p *Profile) BracketLabels() bracket.Labels {
	return bracket.Labels{
		Male:         p.Labels.Male,
		Female:       p.Labels.Female,
		Unstratified: bracket.Bracket(p.Labels.Unstratified),
	}
}

// Standards converts the standards column names for the table loader.
func (p *Profile) Standards() standards.Columns {
	return standards.Columns{
		Sex:       p.StandardsColumns.Sex,
		Bracket:   p.StandardsColumns.Bracket,
		Item:      p.StandardsColumns.Item,
		Threshold: p.StandardsColumns.Threshold,
		Score:     p.StandardsColumns.Score,
	}
}

// List returns the names of all embedded profiles.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	return names, nil
}

// Describe renders the profile as Markdown for operators checking a mapping.
func Describe(p *Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Profile: %s (v%d)\n\n", p.Name, p.Version)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Description))
	}

	b.WriteString("### Roster columns\n\n")
	fmt.Fprintf(&b, "- sex: %s\n- age: %s\n- bracket: %s\n\n", p.Columns.Sex, p.Columns.Age, p.Columns.Bracket)

	b.WriteString("### Items\n\n")
	for _, it := range p.Items {
		fmt.Fprintf(&b, "- %s -> %s (%s)\n", it.Column, it.Item, directionLabel(p, it.Item))
	}
	b.WriteString("\n")

	b.WriteString("### Hang item\n\n")
	fmt.Fprintf(&b, "- male: %s -> %s (%s)\n", p.Dual.ColumnMale, p.Dual.ItemMale, directionLabel(p, p.Dual.ItemMale))
	fmt.Fprintf(&b, "- female reps: %s -> %s (%s)\n", p.Dual.ColumnReps, p.Dual.ItemReps, directionLabel(p, p.Dual.ItemReps))
	fmt.Fprintf(&b, "- female seconds: %s -> %s (%s)\n", p.Dual.ColumnDuration, p.Dual.ItemDuration, directionLabel(p, p.Dual.ItemDuration))
	fmt.Fprintf(&b, "- score column: %s\n\n", p.Dual.ScoreColumn)

	if unused := unusedDirections(p); len(unused) > 0 {
		b.WriteString("### Directions without a column\n\n")
		for _, item := range unused {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func directionLabel(p *Profile, item string) string {
	d, ok := p.Direction(item)
	if !ok {
		return "no direction"
	}
	return d.String()
}

func unusedDirections(p *Profile) []string {
	used := map[string]bool{
		p.Dual.ItemMale:     true,
		p.Dual.ItemReps:     true,
		p.Dual.ItemDuration: true,
	}
	for _, it := range p.Items {
		used[it.Item] = true
	}
	var out []string
	for item := range p.Directions {
		if !used[item] {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}
