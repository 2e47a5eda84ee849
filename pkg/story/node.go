package story

import (
	"fmt"
	"slices"
)

// Format names the on-disk encoding a package was read from.
type Format string

const (
	FormatDevice Format = "device"
	FormatStudio Format = "studio"
)

// NodeKind distinguishes stage nodes from action nodes.
type NodeKind uint8

const (
	// KindStage is a node that presents media to the listener.
	KindStage NodeKind = iota
	// KindAction is a choice point whose transitions lead to stages.
	KindAction
)

// String returns "stage" or "action".
func (k NodeKind) String() string {
	switch k {
	case KindStage:
		return "stage"
	case KindAction:
		return "action"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Controls are the inputs a stage accepts while it is presented.
type Controls struct {
	Wheel    bool `json:"wheel" yaml:"wheel"`
	Ok       bool `json:"ok" yaml:"ok"`
	Home     bool `json:"home" yaml:"home"`
	Pause    bool `json:"pause" yaml:"pause"`
	Autoplay bool `json:"autoplay" yaml:"autoplay"`
}

// AssetKind is the media role of an asset.
type AssetKind uint8

const (
	AssetImage AssetKind = iota
	AssetAudio
)

// String returns "image" or "audio".
func (k AssetKind) String() string {
	if k == AssetAudio {
		return "audio"
	}
	return "image"
}

// AssetRef locates one media blob without holding its bytes. It is
// read-only once created.
//
// Studio refs carry a path relative to the package's asset directory. Device
// refs carry the pack index entry they came from together with its byte
// range and obfuscation flags. Nodes referencing the same pack entry share a
// single *AssetRef.
type AssetRef struct {
	format Format
	kind   AssetKind

	path string

	index      int
	offset     int64
	length     int64
	obfuscated bool
	headerOnly bool
}

// NewStudioAsset returns a ref to an asset file below the studio asset
// directory.
func NewStudioAsset(kind AssetKind, path string) *AssetRef {
	return &AssetRef{format: FormatStudio, kind: kind, path: path}
}

// NewDeviceAsset returns a ref to pack index entry index, described by e.
func NewDeviceAsset(kind AssetKind, index int, e PackEntry) *AssetRef {
	return &AssetRef{
		format:     FormatDevice,
		kind:       kind,
		index:      index,
		offset:     int64(e.Offset),
		length:     int64(e.Length),
		obfuscated: e.Flags.Has(PackObfuscated),
		headerOnly: e.Flags.Has(PackHeaderOnly),
	}
}

func (r *AssetRef) Format() Format  { return r.format }
func (r *AssetRef) Kind() AssetKind { return r.kind }

// Path is the relative asset path of a studio ref.
func (r *AssetRef) Path() string { return r.path }

// Index is the pack index entry of a device ref.
func (r *AssetRef) Index() int { return r.index }

func (r *AssetRef) Offset() int64    { return r.offset }
func (r *AssetRef) Length() int64    { return r.length }
func (r *AssetRef) Obfuscated() bool { return r.obfuscated }
func (r *AssetRef) HeaderOnly() bool { return r.headerOnly }

// Locator returns a stable, human-readable description of where the asset
// lives, suitable as a cache key component.
func (r *AssetRef) Locator() string {
	if r.format == FormatStudio {
		return r.path
	}
	return fmt.Sprintf("pk[%d]@%d+%d", r.index, r.offset, r.length)
}

const (
	// NoEntry means a transition into an action node pre-selects nothing
	// beyond the first option.
	NoEntry = -1
	// RandomEntry means the entered option is picked at random.
	RandomEntry = -2
)

// Transition is a guarded edge to another node.
type Transition struct {
	Condition Condition
	// Target is the index of the destination node.
	Target int
	// Entry is the option pre-selected when Target is an action node,
	// or NoEntry / RandomEntry.
	Entry int
	// Default marks the fallback taken when no condition matches.
	Default bool
}

// Node is one vertex of a story graph. Values returned by [Graph] are
// copies; changing them does not affect the graph.
type Node struct {
	Index int
	ID    string
	Name  string
	Kind  NodeKind

	Transitions []Transition

	Image *AssetRef
	Audio *AssetRef

	Controls Controls
	// NoMedia marks a stage that intentionally has no image and no audio.
	NoMedia bool
	// Entry marks the node the package declares as its starting point.
	Entry bool
}

// IsStage reports whether the node presents media.
func (n Node) IsStage() bool { return n.Kind == KindStage }

// IsAction reports whether the node is a choice point.
func (n Node) IsAction() bool { return n.Kind == KindAction }

// HasMedia reports whether the node references at least one asset.
func (n Node) HasMedia() bool { return n.Image != nil || n.Audio != nil }

// Asset returns the node's asset of the given kind, or nil.
func (n Node) Asset(kind AssetKind) *AssetRef {
	if kind == AssetAudio {
		return n.Audio
	}
	return n.Image
}

func (n Node) clone() Node {
	n.Transitions = slices.Clone(n.Transitions)
	return n
}
