// Package validate checks the structural integrity of a story graph before
// it is handed to callers.
//
// Problems split into two groups. Integrity problems make a package
// unusable and fail [Validate] with a single INTEGRITY error that joins
// every problem found:
//
//   - transitions whose target node does not exist
//   - asset references outside the package's asset table
//   - more than one default transition on a node
//   - two non-default transitions with identical conditions on a node
//   - option indices outside their count, or mixed counts on one node
//   - entry options outside the target action node's options
//
// Everything else is reported as a warning in the returned [story.Report]:
// nodes unreachable from the root and stages without media that are not
// marked as intentionally silent. Dead ends and cycles are classified in
// the report but are never problems; most stories loop back home.
package validate

import (
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/story"
)

// Validate checks g and merges in the findings collected while decoding
// it. The report is filled in even when an error is returned.
func Validate(g *story.Graph, findings []story.Finding) (story.Report, error) {
	var (
		report   story.Report
		problems []error
		reported = make(map[int]bool)
	)

	for _, f := range findings {
		if f.Severity != story.SeverityError {
			report.Warnings = append(report.Warnings, f)
			continue
		}
		code := errors.ErrCodeIntegrity
		switch f.Kind {
		case story.FindingDanglingTransition:
			code = errors.ErrCodeDanglingTransition
			reported[f.Node] = true
		case story.FindingDanglingReference:
			code = errors.ErrCodeDanglingReference
		}
		problems = append(problems, errors.New(code, "%s", f))
	}

	nodes := g.Nodes()
	for _, n := range nodes {
		problems = append(problems, checkNode(g, n, reported[n.Index])...)
		if n.IsStage() && !n.HasMedia() && !n.NoMedia {
			report.Warnings = append(report.Warnings, story.Finding{
				Kind:     story.FindingMissingMedia,
				Severity: story.SeverityWarning,
				Node:     n.Index,
				Slot:     -1,
				Message:  fmt.Sprintf("stage %q has no image or audio", n.ID),
			})
		}
		if len(n.Transitions) == 0 {
			report.DeadEnds = append(report.DeadEnds, n.Index)
		}
	}

	reach := reachable(g)
	for _, n := range nodes {
		if reach[n.Index] {
			report.Reachable++
			continue
		}
		report.Warnings = append(report.Warnings, story.Finding{
			Kind:     story.FindingUnreachable,
			Severity: story.SeverityWarning,
			Node:     n.Index,
			Slot:     -1,
			Message:  fmt.Sprintf("%s %q cannot be reached from the root", n.Kind, n.ID),
		})
	}
	report.BackEdges = backEdges(g)

	if len(problems) > 0 {
		return report, errors.Wrap(errors.ErrCodeIntegrity, stderrors.Join(problems...),
			"%d structural problem(s)", len(problems))
	}
	return report, nil
}

// liveCondition is a non-default transition's condition. Non-default
// conditions on one node must be disjoint.
type liveCondition struct {
	slot int
	cond story.Condition
}

func checkNode(g *story.Graph, n story.Node, danglingReported bool) []error {
	var (
		problems  []error
		defaults  int
		count     = -1
		live      []liveCondition
		integrity = func(format string, args ...any) {
			msg := fmt.Sprintf(format, args...)
			problems = append(problems, errors.New(errors.ErrCodeIntegrity, "node %d (%s): %s", n.Index, n.ID, msg))
		}
	)

	for i, t := range n.Transitions {
		c := t.Condition
		if !c.Kind.Valid() {
			integrity("transition %d has unknown condition %s", i, c.Kind)
		}
		if t.Default {
			defaults++
		} else {
			for _, prev := range live {
				if prev.cond.Matches(c) || c.Matches(prev.cond) {
					integrity("transitions %d (%s) and %d (%s) both fire on the same input", prev.slot, prev.cond, i, c)
					break
				}
			}
			live = append(live, liveCondition{slot: i, cond: c})
		}

		if c.Kind == story.CondOption {
			switch {
			case c.Count <= 0 || c.Index < 0 || c.Index >= c.Count:
				integrity("transition %d: %s is out of bounds", i, c)
			case count >= 0 && c.Count != count:
				integrity("transition %d: %s disagrees with option count %d", i, c, count)
			default:
				count = c.Count
			}
		}

		target, ok := g.Node(t.Target)
		if !ok {
			if !danglingReported {
				problems = append(problems, errors.New(errors.ErrCodeDanglingTransition,
					"node %d (%s): transition %d targets missing node %d", n.Index, n.ID, i, t.Target))
			}
			continue
		}
		if t.Entry < story.RandomEntry {
			integrity("transition %d has invalid entry option %d", i, t.Entry)
		}
		if target.IsAction() && t.Entry >= 0 {
			if opts := g.OptionCount(target); t.Entry >= opts {
				integrity("transition %d enters option %d of %q which has %d", i, t.Entry, target.ID, opts)
			}
		}
	}
	if defaults > 1 {
		integrity("%d default transitions, at most one allowed", defaults)
	}
	return problems
}

func reachable(g *story.Graph) map[int]bool {
	seen := map[int]bool{g.RootIndex(): true}
	queue := []int{g.RootIndex()}
	for len(queue) > 0 {
		cur, _ := g.Node(queue[0])
		queue = queue[1:]
		for _, t := range cur.Transitions {
			if t.Target < 0 || t.Target >= g.Len() || seen[t.Target] {
				continue
			}
			seen[t.Target] = true
			queue = append(queue, t.Target)
		}
	}
	return seen
}

// backEdges classifies cycles with a white/gray/black depth-first search
// starting at the root, then at any node the root does not reach.
func backEdges(g *story.Graph) []story.Edge {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, g.Len())
	var edges []story.Edge

	var dfs func(i int)
	dfs = func(i int) {
		color[i] = gray
		n, _ := g.Node(i)
		for _, t := range n.Transitions {
			if t.Target < 0 || t.Target >= g.Len() {
				continue
			}
			switch color[t.Target] {
			case white:
				dfs(t.Target)
			case gray:
				edges = append(edges, story.Edge{From: i, To: t.Target})
			}
		}
		color[i] = black
	}

	dfs(g.RootIndex())
	for i := range color {
		if color[i] == white {
			dfs(i)
		}
	}
	return edges
}
