package standards

import (
	"fmt"
	"sort"

	"github.com/sorryxx18/firefit-score-converter/internal/cell"
)

// IssueKind classifies a data-quality finding.
type IssueKind string

const (
	IssueNonMonotonic       IssueKind = "NON_MONOTONIC"
	IssueDuplicateThreshold IssueKind = "DUPLICATE_THRESHOLD"
	IssueNoDirection        IssueKind = "NO_DIRECTION"
)

// Issue describes one suspicious scoring curve.
type Issue struct {
	Key     Key
	Kind    IssueKind
	Message string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s/%s/%s: %s", i.Key.Sex, i.Key.Bracket, i.Key.Item, i.Message)
}

// DirectionFunc looks up the scoring direction of an item.
type DirectionFunc func(item string) (Direction, bool)

// Check reports curves that look wrong. Resolve never depends on the curve
// shape, so findings are advisory only.
//
// A curve is expected to award a score at least as high for every threshold
// that is harder to reach. Two entries with the same threshold but different
// scores are reported as well.
func Check(t *Table, direction DirectionFunc) []Issue {
	var issues []Issue
	for _, k := range t.Keys() {
		d, ok := direction(k.Item)
		if !ok {
			issues = append(issues, Issue{Key: k, Kind: IssueNoDirection, Message: "item has no scoring direction"})
			continue
		}

		curve := make([]Entry, len(t.entries[k]))
		copy(curve, t.entries[k])
		// Order from easiest to hardest threshold.
		sort.SliceStable(curve, func(i, j int) bool {
			if d == LowerIsBetter {
				return curve[i].Threshold > curve[j].Threshold
			}
			return curve[i].Threshold < curve[j].Threshold
		})

		for i := 1; i < len(curve); i++ {
			prev, cur := curve[i-1], curve[i]
			switch {
			case prev.Threshold == cur.Threshold && prev.Score != cur.Score:
				issues = append(issues, Issue{
					Key:  k,
					Kind: IssueDuplicateThreshold,
					Message: fmt.Sprintf("threshold %s has scores %s and %s",
						cell.Format(cur.Threshold), cell.Format(prev.Score), cell.Format(cur.Score)),
				})
			case cur.Score < prev.Score:
				issues = append(issues, Issue{
					Key:  k,
					Kind: IssueNonMonotonic,
					Message: fmt.Sprintf("threshold %s scores %s but easier threshold %s scores %s",
						cell.Format(cur.Threshold), cell.Format(cur.Score),
						cell.Format(prev.Threshold), cell.Format(prev.Score)),
				})
			}
		}
	}
	return issues
}
