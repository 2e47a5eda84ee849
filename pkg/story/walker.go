package story

import (
	"math/rand/v2"

	"github.com/matzehuels/storybox/pkg/errors"
)

// maxActionChain bounds how many action nodes may be entered back to back
// before a stage is reached.
const maxActionChain = 16

// Walker is a listener's position in a story: the current stage and, when
// the stage was reached through an action node, that node and the selected
// option.
//
// Walker does not look at a stage's [Controls]; callers decide which
// inputs to forward.
type Walker struct {
	g      *Graph
	rng    *rand.Rand
	stage  int
	action int
	option int
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithRand sets the source used for RandomEntry transitions.
func WithRand(r *rand.Rand) WalkerOption {
	return func(w *Walker) { w.rng = r }
}

// NewWalker returns a Walker positioned at the root of g.
func NewWalker(g *Graph, opts ...WalkerOption) *Walker {
	w := &Walker{g: g, action: -1}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewPCG(1, 2))
	}
	w.Reset()
	return w
}

// Reset moves back to the root node.
func (w *Walker) Reset() {
	w.action = -1
	w.option = 0
	w.stage = w.g.root
	if w.g.nodes[w.g.root].IsAction() {
		if err := w.enter(w.g.root, NoEntry, 0); err != nil {
			w.action = -1
		}
	}
}

// Stage returns the node being presented.
func (w *Walker) Stage() Node { return w.g.nodes[w.stage].clone() }

// Action returns the action node the current stage was chosen from.
func (w *Walker) Action() (Node, bool) {
	if w.action < 0 {
		return Node{}, false
	}
	return w.g.nodes[w.action].clone(), true
}

// Option returns the selected option of the current action node.
func (w *Walker) Option() int { return w.option }

// Ok handles the ok button. A stage without an ok transition sends the
// walker back to the root.
func (w *Walker) Ok() error { return w.press(OkPressed()) }

// Home handles the home button with the same reset rule as Ok.
func (w *Walker) Home() error { return w.press(HomePressed()) }

// Timeout handles the end of the current stage's sound. An explicit timeout
// transition wins; otherwise the stage behaves as if ok was pressed when ok
// or autoplay is enabled, or home when only home is. A stage accepting
// neither stays where it is.
func (w *Walker) Timeout() error {
	stage := w.g.nodes[w.stage]
	if t, err := w.g.Match(stage, TimeoutElapsed()); err == nil {
		return w.take(t)
	}
	switch {
	case stage.Controls.Ok || stage.Controls.Autoplay:
		return w.Ok()
	case stage.Controls.Home:
		return w.Home()
	}
	return nil
}

// Wheel moves the selection delta options within the current action node,
// wrapping around at both ends. It does nothing outside an action node.
func (w *Walker) Wheel(delta int) error {
	if w.action < 0 {
		return nil
	}
	action := w.g.nodes[w.action]
	count := w.g.OptionCount(action)
	if count == 0 {
		return nil
	}
	opt := ((w.option+delta)%count + count) % count
	next, err := w.g.Follow(action, Option(opt, count))
	if err != nil {
		return err
	}
	w.option = opt
	return w.land(next.Index, 1)
}

func (w *Walker) press(c Condition) error {
	t, err := w.g.Match(w.g.nodes[w.stage], c)
	if errors.Is(err, errors.ErrCodeNoMatchingTransition) {
		w.Reset()
		return nil
	}
	if err != nil {
		return err
	}
	return w.take(t)
}

func (w *Walker) take(t Transition) error {
	if t.Target < 0 || t.Target >= len(w.g.nodes) {
		return errors.New(errors.ErrCodeDanglingTransition, "transition %s targets missing node %d", t.Condition, t.Target)
	}
	if w.g.nodes[t.Target].IsAction() {
		return w.enter(t.Target, t.Entry, 0)
	}
	w.action = -1
	w.option = 0
	w.stage = t.Target
	return nil
}

// enter selects an option of the action node idx and moves to the stage it
// leads to.
func (w *Walker) enter(idx, entry, depth int) error {
	if depth >= maxActionChain {
		return errors.New(errors.ErrCodeIntegrity, "more than %d action nodes chained at node %d", maxActionChain, idx)
	}
	action := w.g.nodes[idx]
	count := w.g.OptionCount(action)
	opt := 0
	switch {
	case entry == RandomEntry && count > 0:
		opt = w.rng.IntN(count)
	case entry >= 0 && entry < count:
		opt = entry
	}
	next, err := w.g.Follow(action, Option(opt, count))
	if err != nil {
		return err
	}
	w.action = idx
	w.option = opt
	return w.land(next.Index, depth+1)
}

func (w *Walker) land(idx, depth int) error {
	if w.g.nodes[idx].IsAction() {
		return w.enter(idx, NoEntry, depth)
	}
	w.stage = idx
	return nil
}
