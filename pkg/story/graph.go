package story

import (
	"github.com/matzehuels/storybox/pkg/errors"
)

// Graph is the unified, immutable story graph.
//
// The zero value is not usable; graphs are created by [Build].
type Graph struct {
	format Format
	nodes  []Node
	root   int
	byID   map[string]int
}

// Build unifies a decoded package into a Graph. Unused slots are dropped,
// used ones keep their order. Build does not check transition targets; that
// is the validator's job, and graphs handed to callers by the loader have
// always been validated.
func Build(raw RawGraph) (*Graph, error) {
	rawNodes := raw.Nodes()
	if len(rawNodes) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyPackage, "package %q has no nodes", raw.ID())
	}
	root := raw.Root()
	if root < 0 || root >= len(rawNodes) {
		return nil, errors.New(errors.ErrCodeIntegrity, "root node %d out of range [0,%d)", root, len(rawNodes))
	}

	g := &Graph{
		format: raw.Format(),
		nodes:  make([]Node, len(rawNodes)),
		root:   root,
		byID:   make(map[string]int, len(rawNodes)),
	}
	for i, rn := range rawNodes {
		n := Node{
			Index:    i,
			ID:       rn.ID,
			Name:     rn.Name,
			Kind:     rn.Kind,
			Image:    rn.Image,
			Audio:    rn.Audio,
			Controls: rn.Controls,
			NoMedia:  rn.NoMedia,
			Entry:    rn.Entry,
		}
		for _, s := range rn.Slots {
			if s.Used {
				n.Transitions = append(n.Transitions, s.Transition)
			}
		}
		g.nodes[i] = n
		if rn.ID == "" {
			continue
		}
		if prev, dup := g.byID[rn.ID]; dup {
			return nil, errors.New(errors.ErrCodeCorruptData, "nodes %d and %d share id %q", prev, i, rn.ID)
		}
		g.byID[rn.ID] = i
	}
	return g, nil
}

// Format returns the format the graph was decoded from.
func (g *Graph) Format() Format { return g.format }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Root returns the starting node.
func (g *Graph) Root() Node { return g.nodes[g.root].clone() }

// RootIndex returns the index of the starting node.
func (g *Graph) RootIndex() int { return g.root }

// Node returns the node at index i.
func (g *Graph) Node(i int) (Node, bool) {
	if i < 0 || i >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[i].clone(), true
}

// NodeByID returns the node with the given identifier.
func (g *Graph) NodeByID(id string) (Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i].clone(), true
}

// Nodes returns copies of all nodes in index order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.clone()
	}
	return out
}

// TransitionsOf returns the outgoing transitions of n in declaration order.
// The graph's own copy of n is consulted, so edits to n are ignored.
func (g *Graph) TransitionsOf(n Node) []Transition {
	if n.Index < 0 || n.Index >= len(g.nodes) {
		return nil
	}
	return g.nodes[n.Index].clone().Transitions
}

// OptionCount returns how many options the action node n offers, taken
// from its option transitions. It is 0 for stages.
func (g *Graph) OptionCount(n Node) int {
	if n.Index < 0 || n.Index >= len(g.nodes) {
		return 0
	}
	count := 0
	for _, t := range g.nodes[n.Index].Transitions {
		if t.Condition.Kind == CondOption && t.Condition.Count > count {
			count = t.Condition.Count
		}
	}
	return count
}

// Match returns the transition Follow would take from n for condition c.
func (g *Graph) Match(n Node, c Condition) (Transition, error) {
	if n.Index < 0 || n.Index >= len(g.nodes) {
		return Transition{}, errors.New(errors.ErrCodeNotFound, "node %d not in graph", n.Index)
	}
	node := &g.nodes[n.Index]
	for _, t := range node.Transitions {
		if t.Condition.Matches(c) {
			return t, nil
		}
	}
	var (
		fallback Transition
		defaults int
	)
	for _, t := range node.Transitions {
		if t.Default {
			fallback = t
			defaults++
		}
	}
	if defaults == 1 {
		return fallback, nil
	}
	return Transition{}, errors.New(errors.ErrCodeNoMatchingTransition,
		"node %d (%s) has no transition for %s", n.Index, node.ID, c)
}

// Follow returns the node reached from n under condition c: the first
// transition whose condition matches wins, otherwise the node's default.
func (g *Graph) Follow(n Node, c Condition) (Node, error) {
	t, err := g.Match(n, c)
	if err != nil {
		return Node{}, err
	}
	if t.Target < 0 || t.Target >= len(g.nodes) {
		return Node{}, errors.New(errors.ErrCodeDanglingTransition,
			"node %d transition %s targets missing node %d", n.Index, t.Condition, t.Target)
	}
	return g.nodes[t.Target].clone(), nil
}
