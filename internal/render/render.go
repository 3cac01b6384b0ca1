// Package render produces Markdown output from a conversion run.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sorryxx18/firefit-score-converter/internal/cell"
	"github.com/sorryxx18/firefit-score-converter/internal/convert"
	"github.com/sorryxx18/firefit-score-converter/internal/profile"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

// Input names one file read by the run.
type Input struct {
	Role string
	Path string
	Hash string
}

// Run is everything the report describes.
type Run struct {
	ID      string
	Version string
	Inputs  []Input
	Output  string
	Profile *profile.Profile
	Summary convert.Summary

	StandardsEntries int
	StandardsDropped int

	// Checked reports whether a standards check ran; Issues holds its findings.
	Checked bool
	Issues  []standards.Issue
}

// Markdown renders a run as a Markdown report.
func Markdown(r *Run) string {
	var b strings.Builder

	b.WriteString("# Fitness Score Conversion\n\n")
	if r.ID != "" {
		fmt.Fprintf(&b, "**Run:** %s\n", r.ID)
	}
	if r.Profile != nil {
		fmt.Fprintf(&b, "**Profile:** %s (v%d)\n", r.Profile.Name, r.Profile.Version)
	}
	fmt.Fprintf(&b, "**Rows:** %d scored, %d without a bracket, %d with unknown sex\n",
		r.Summary.Rows, r.Summary.Unresolved, r.Summary.UnknownSex)
	if len(r.Summary.Totals) > 0 {
		lo, hi, mean := r.Summary.TotalRange()
		fmt.Fprintf(&b, "**Totals:** min %s, max %s, mean %.1f\n", cell.Format(lo), cell.Format(hi), mean)
	}
	b.WriteString("\n")

	// Files
	if len(r.Inputs) > 0 || r.Output != "" {
		b.WriteString("## Files\n\n")
		for _, in := range r.Inputs {
			fmt.Fprintf(&b, "- %s: %s (`%s`)\n", in.Role, filepath.Base(in.Path), in.Hash)
		}
		if r.Output != "" {
			fmt.Fprintf(&b, "- output: %s\n", filepath.Base(r.Output))
		}
		fmt.Fprintf(&b, "- standards entries: %d used, %d rows skipped\n\n", r.StandardsEntries, r.StandardsDropped)
	}

	// Zero scores
	if cols := r.Summary.ItemColumns(); len(cols) > 0 {
		b.WriteString("## Zero Scores\n\n")
		b.WriteString("| Column | Rows |\n|---|---|\n")
		for _, col := range cols {
			fmt.Fprintf(&b, "| %s | %d |\n", col, r.Summary.ZeroScores[col])
		}
		b.WriteString("\n")
	}

	// Warnings
	if len(r.Summary.Warnings) > 0 {
		b.WriteString("## Configuration Warnings\n\n")
		for _, w := range r.Summary.Warnings {
			fmt.Fprintf(&b, "- [%s] %s\n", w.Kind, w.Message)
		}
		b.WriteString("\n")
	}

	// Standards check
	if r.Checked {
		b.WriteString("## Standards Check\n\n")
		if len(r.Issues) == 0 {
			b.WriteString("No issues found.\n\n")
		}
		for _, is := range filterIssues(r.Issues, standards.IssueNoDirection) {
			renderIssue(&b, is)
		}
		for _, is := range filterIssues(r.Issues, standards.IssueNonMonotonic) {
			renderIssue(&b, is)
		}
		for _, is := range filterIssues(r.Issues, standards.IssueDuplicateThreshold) {
			renderIssue(&b, is)
		}
		if len(r.Issues) > 0 {
			b.WriteString("\n")
		}
	}

	if r.Version != "" {
		fmt.Fprintf(&b, "_firefit %s_\n", r.Version)
	}
	return b.String()
}

func filterIssues(issues []standards.Issue, kind standards.IssueKind) []standards.Issue {
	var result []standards.Issue
	for _, is := range issues {
		if is.Kind == kind {
			result = append(result, is)
		}
	}
	return result
}

func renderIssue(b *strings.Builder, is standards.Issue) {
	fmt.Fprintf(b, "- **%s** %s / %s / %s: %s\n", is.Kind, is.Key.Sex, is.Key.Bracket, is.Key.Item, is.Message)
}
