package story

import "fmt"

// ConditionKind identifies what a listener must do for a transition to fire.
type ConditionKind uint8

const (
	// CondAlways matches every request.
	CondAlways ConditionKind = iota
	// CondOption matches "option Index of Count" on an action node.
	CondOption
	// CondOk matches the ok button.
	CondOk
	// CondHome matches the home button.
	CondHome
	// CondTimeout matches the end of a stage's sound.
	CondTimeout
)

var conditionNames = [...]string{
	CondAlways:  "always",
	CondOption:  "option",
	CondOk:      "ok",
	CondHome:    "home",
	CondTimeout: "timeout",
}

// String returns the lower-case name of the kind.
func (k ConditionKind) String() string {
	if int(k) < len(conditionNames) {
		return conditionNames[k]
	}
	return fmt.Sprintf("condition(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k ConditionKind) Valid() bool { return int(k) < len(conditionNames) }

// Condition guards a transition. Index and Count are only meaningful for
// CondOption; they are zero for every other kind.
type Condition struct {
	Kind  ConditionKind
	Index int
	Count int
}

// Always returns the unconditional condition.
func Always() Condition { return Condition{Kind: CondAlways} }

// Option returns "option index of count".
func Option(index, count int) Condition {
	return Condition{Kind: CondOption, Index: index, Count: count}
}

// OkPressed returns the ok button condition.
func OkPressed() Condition { return Condition{Kind: CondOk} }

// HomePressed returns the home button condition.
func HomePressed() Condition { return Condition{Kind: CondHome} }

// TimeoutElapsed returns the end-of-sound condition.
func TimeoutElapsed() Condition { return Condition{Kind: CondTimeout} }

// Matches reports whether a transition guarded by c fires for the request r.
func (c Condition) Matches(r Condition) bool {
	switch c.Kind {
	case CondAlways:
		return true
	case CondOption:
		return r.Kind == CondOption && r.Index == c.Index && r.Count == c.Count
	default:
		return r.Kind == c.Kind
	}
}

// String renders the condition for logs and reports, e.g. "option 2 of 3".
func (c Condition) String() string {
	if c.Kind == CondOption {
		return fmt.Sprintf("option %d of %d", c.Index, c.Count)
	}
	return c.Kind.String()
}
