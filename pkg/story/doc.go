// Package story provides the unified story graph shared by every package
// format storybox reads.
//
// # Overview
//
// A story package is a directed graph. Stage nodes show a picture and play a
// sound; action nodes group the stages a listener can choose between. Device
// and studio packages encode the same graph in very different ways. Parsers
// decode their format into a [RawGraph], and [Build] turns any RawGraph into
// a [Graph] whose shape no longer depends on where it came from.
//
// # Transitions
//
// Every edge is a [Transition] guarded by a [Condition]:
//
//   - [Always]: taken whatever the listener does
//   - [Option]: "option N of M" on an action node
//   - [OkPressed] and [HomePressed]: buttons pressed on a stage
//   - [TimeoutElapsed]: the stage's sound finished playing
//
// [Graph.Follow] picks the first transition whose condition matches, falls
// back to the node's single default transition, and otherwise fails with a
// NO_MATCHING_TRANSITION error. The result only depends on the node and the
// condition.
//
// # Walking
//
// [Walker] layers the device's button semantics on top of Follow: ok and home
// enter an action node with a pre-selected option, the wheel cycles through
// that node's options, and a missing transition sends the listener back to
// the root.
//
//	w := story.NewWalker(pkg.Graph())
//	w.Ok()
//	w.Wheel(+1)
//	fmt.Println(w.Stage().Name)
//
// # Concurrency
//
// [Graph], [PackIndex] and [Package] expose no mutation API and are safe for
// concurrent readers once built. A Walker holds per-listener state and must
// not be shared between goroutines.
package story
