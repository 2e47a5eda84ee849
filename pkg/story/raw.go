package story

import "fmt"

// Info is package-level metadata both formats can provide.
type Info struct {
	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	FormatVersion   int    `json:"format_version" yaml:"format_version"`
	StoryVersion    int    `json:"story_version" yaml:"story_version"`
	NightMode       bool   `json:"night_mode" yaml:"night_mode"`
	FactoryDisabled bool   `json:"factory_disabled,omitempty" yaml:"factory_disabled,omitempty"`
}

// RawGraph is the decoded but not yet unified form of a package. Each
// format parser returns its own implementation; [Build] and the validator
// only use this interface.
type RawGraph interface {
	Format() Format
	// ID is the package identifier, usually its directory name.
	ID() string
	Info() Info
	// Root is the index of the starting node.
	Root() int
	Nodes() []RawNode
	// Findings are problems noticed while decoding that did not stop it.
	Findings() []Finding
}

// Slot is one optional transition of a raw node. Device records have a
// fixed number of slots, some of them unused.
type Slot struct {
	Transition
	Used bool
}

// RawNode is a node as decoded, before unused slots are dropped.
type RawNode struct {
	ID       string
	Name     string
	Kind     NodeKind
	Slots    []Slot
	Image    *AssetRef
	Audio    *AssetRef
	Controls Controls
	NoMedia  bool
	Entry    bool
}

// Severity grades a finding.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// FindingKind classifies a finding.
type FindingKind string

const (
	FindingDanglingTransition FindingKind = "dangling-transition"
	FindingDanglingReference  FindingKind = "dangling-reference"
	FindingUnreachable        FindingKind = "unreachable"
	FindingMissingMedia       FindingKind = "missing-media"
	FindingDuplicateEntry     FindingKind = "duplicate-entry"
)

// Finding is a structural observation about a package. Node and Slot are -1
// when they do not apply.
type Finding struct {
	Kind     FindingKind `json:"kind" yaml:"kind"`
	Severity Severity    `json:"severity" yaml:"severity"`
	Node     int         `json:"node" yaml:"node"`
	Slot     int         `json:"slot" yaml:"slot"`
	Message  string      `json:"message" yaml:"message"`
}

// String formats the finding for logs.
func (f Finding) String() string {
	switch {
	case f.Node >= 0 && f.Slot >= 0:
		return fmt.Sprintf("%s: node %d slot %d: %s", f.Kind, f.Node, f.Slot, f.Message)
	case f.Node >= 0:
		return fmt.Sprintf("%s: node %d: %s", f.Kind, f.Node, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// MarshalText encodes the severity as its name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// RawPackage is a plain RawGraph. Format parsers embed it in their own
// raw types; tests use it to build graphs by hand.
type RawPackage struct {
	PackageFormat  Format
	PackageID      string
	PackageInfo    Info
	RootIndex      int
	RawNodes       []RawNode
	DecodeFindings []Finding
}

func (r *RawPackage) Format() Format      { return r.PackageFormat }
func (r *RawPackage) ID() string          { return r.PackageID }
func (r *RawPackage) Info() Info          { return r.PackageInfo }
func (r *RawPackage) Root() int           { return r.RootIndex }
func (r *RawPackage) Nodes() []RawNode    { return r.RawNodes }
func (r *RawPackage) Findings() []Finding { return r.DecodeFindings }

// Use returns a used slot for t.
func Use(t Transition) Slot { return Slot{Transition: t, Used: true} }

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}
