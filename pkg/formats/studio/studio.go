// Package studio decodes story packages authored with studio tools: a
// story.json manifest at the package root and plain media files under
// assets/.
//
// Stage nodes become graph nodes 0..S-1 in manifest order, action nodes
// follow as S..S+A-1. A stage's okTransition and homeTransition become ok
// and home transitions into an action node, entering it at optionIndex (-1
// picks a random option). Stages with autoplay additionally get a timeout
// transition mirroring their ok transition. Each option of an action node
// becomes an "option k of M" transition, and defaultOption marks one of
// them as the node's fallback.
//
// Asset files are not opened while parsing; a missing file only surfaces
// when the asset is resolved.
package studio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/formats"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
)

const (
	// StoryFile is the manifest name.
	StoryFile = "story.json"
	// AssetDir is the directory asset paths are relative to.
	AssetDir = "assets"
	// SupportedFormat is the only manifest format understood.
	SupportedFormat = "v1"
)

// Document is the story.json manifest.
type Document struct {
	Format             string       `json:"format"`
	Version            *int         `json:"version"`
	Title              string       `json:"title,omitempty"`
	Description        string       `json:"description,omitempty"`
	NightModeAvailable bool         `json:"nightModeAvailable,omitempty"`
	StageNodes         []StageNode  `json:"stageNodes"`
	ActionNodes        []ActionNode `json:"actionNodes"`
}

// StageNode is a manifest stage.
type StageNode struct {
	UUID            string           `json:"uuid"`
	Name            string           `json:"name,omitempty"`
	SquareOne       bool             `json:"squareOne,omitempty"`
	Image           *string          `json:"image"`
	Audio           *string          `json:"audio"`
	NoMedia         bool             `json:"noMedia,omitempty"`
	OkTransition    *Link            `json:"okTransition"`
	HomeTransition  *Link            `json:"homeTransition"`
	ControlSettings *ControlSettings `json:"controlSettings"`
}

// Link points from a stage to an action node.
type Link struct {
	ActionNode  string `json:"actionNode"`
	OptionIndex int    `json:"optionIndex"`
}

// ControlSettings are the inputs a stage accepts.
type ControlSettings struct {
	Wheel    bool `json:"wheel"`
	Ok       bool `json:"ok"`
	Home     bool `json:"home"`
	Pause    bool `json:"pause"`
	Autoplay bool `json:"autoplay"`
}

// ActionNode is a manifest choice point.
type ActionNode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Options       []string `json:"options"`
	DefaultOption *int     `json:"defaultOption,omitempty"`
}

// Parser decodes studio packages.
type Parser struct{}

// Format implements formats.Parser.
func (Parser) Format() story.Format { return story.FormatStudio }

// Raw is a decoded studio package.
type Raw struct {
	story.RawPackage
	Document *Document
}

// Parse implements formats.Parser.
func (Parser) Parse(ctx context.Context, fsys storage.FS, opts formats.Options) (story.RawGraph, error) {
	opts = opts.WithDefaults()
	id := opts.ID
	if id == "" {
		id = string(story.FormatStudio)
	}

	data, err := fsys.ReadFile(StoryFile)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFormat, "no %s manifest", StoryFile)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", StoryFile)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "%s is not a story manifest", StoryFile)
	}
	if err := checkDocument(&doc); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := &Raw{
		Document: &doc,
		RawPackage: story.RawPackage{
			PackageFormat: story.FormatStudio,
			PackageID:     id,
			PackageInfo: story.Info{
				Title:         doc.Title,
				Description:   doc.Description,
				FormatVersion: 1,
				StoryVersion:  *doc.Version,
				NightMode:     doc.NightModeAvailable,
			},
		},
	}
	if raw.PackageInfo.Title == "" {
		raw.PackageInfo.Title = id
	}
	if err := raw.build(&doc); err != nil {
		return nil, err
	}
	opts.Logger.Debug("decoded studio package", "id", id,
		"stages", len(doc.StageNodes), "actions", len(doc.ActionNodes), "findings", len(raw.DecodeFindings))
	return raw, nil
}

func checkDocument(doc *Document) error {
	switch {
	case doc.Format == "":
		return errors.New(errors.ErrCodeFormat, "%s has no format field", StoryFile)
	case doc.Format != SupportedFormat:
		return errors.New(errors.ErrCodeFormat, "unsupported manifest format %q", doc.Format)
	case doc.Version == nil || *doc.Version < 1:
		return errors.New(errors.ErrCodeFormat, "%s needs a positive version", StoryFile)
	case doc.StageNodes == nil:
		return errors.New(errors.ErrCodeFormat, "%s has no stageNodes", StoryFile)
	case len(doc.StageNodes) == 0:
		return errors.New(errors.ErrCodeEmptyPackage, "%s declares no stage nodes", StoryFile)
	}
	for i, s := range doc.StageNodes {
		if s.UUID == "" {
			return errors.New(errors.ErrCodeFormat, "stage node %d has no uuid", i)
		}
		if s.ControlSettings == nil {
			return errors.New(errors.ErrCodeFormat, "stage node %q has no controlSettings", s.UUID)
		}
		for _, p := range []*string{s.Image, s.Audio} {
			if p == nil || *p == "" {
				continue
			}
			if err := errors.ValidatePath(*p); err != nil {
				return errors.Wrap(errors.ErrCodeFormat, err, "stage node %q asset %q", s.UUID, *p)
			}
		}
	}
	for i, a := range doc.ActionNodes {
		if a.ID == "" {
			return errors.New(errors.ErrCodeFormat, "action node %d has no id", i)
		}
	}
	return nil
}

func (r *Raw) build(doc *Document) error {
	stages := make(map[string]int, len(doc.StageNodes))
	for i, s := range doc.StageNodes {
		if _, dup := stages[s.UUID]; dup {
			return errors.New(errors.ErrCodeCorruptData, "stage uuid %q used twice", s.UUID)
		}
		stages[s.UUID] = i
	}
	base := len(doc.StageNodes)
	actions := make(map[string]int, len(doc.ActionNodes))
	for j, a := range doc.ActionNodes {
		if _, dup := actions[a.ID]; dup {
			return errors.New(errors.ErrCodeCorruptData, "action id %q used twice", a.ID)
		}
		if _, dup := stages[a.ID]; dup {
			return errors.New(errors.ErrCodeCorruptData, "action id %q is also a stage uuid", a.ID)
		}
		actions[a.ID] = base + j
	}

	refs := make(map[string]*story.AssetRef)
	asset := func(p *string, kind story.AssetKind) *story.AssetRef {
		if p == nil || *p == "" {
			return nil
		}
		key := kind.String() + ":" + *p
		if ref, ok := refs[key]; ok {
			return ref
		}
		ref := story.NewStudioAsset(kind, *p)
		refs[key] = ref
		return ref
	}

	r.RawNodes = make([]story.RawNode, 0, base+len(doc.ActionNodes))
	r.RootIndex = -1
	for i, s := range doc.StageNodes {
		cs := s.ControlSettings
		n := story.RawNode{
			ID:    s.UUID,
			Name:  s.Name,
			Kind:  story.KindStage,
			Image: asset(s.Image, story.AssetImage),
			Audio: asset(s.Audio, story.AssetAudio),
			Controls: story.Controls{
				Wheel:    cs.Wheel,
				Ok:       cs.Ok,
				Home:     cs.Home,
				Pause:    cs.Pause,
				Autoplay: cs.Autoplay,
			},
			NoMedia: s.NoMedia,
			Entry:   s.SquareOne,
		}
		if s.SquareOne {
			if r.RootIndex < 0 {
				r.RootIndex = i
			} else {
				r.finding(story.FindingDuplicateEntry, story.SeverityWarning, i,
					fmt.Sprintf("stage %q is also marked squareOne", s.UUID))
				n.Entry = false
			}
		}

		ok, okResolved := r.link(i, "okTransition", s.OkTransition, story.OkPressed(), actions)
		home, _ := r.link(i, "homeTransition", s.HomeTransition, story.HomePressed(), actions)
		n.Slots = []story.Slot{ok, home}
		if cs.Autoplay && okResolved {
			timeout := ok
			timeout.Condition = story.TimeoutElapsed()
			n.Slots = append(n.Slots, timeout)
		}
		r.RawNodes = append(r.RawNodes, n)
	}

	for j, a := range doc.ActionNodes {
		idx := base + j
		n := story.RawNode{ID: a.ID, Name: a.Name, Kind: story.KindAction}
		count := len(a.Options)
		for k, uuid := range a.Options {
			target, ok := stages[uuid]
			if !ok {
				r.finding(story.FindingDanglingReference, story.SeverityError, idx,
					fmt.Sprintf("option %d names unknown stage %q", k, uuid))
				n.Slots = append(n.Slots, story.Slot{})
				continue
			}
			n.Slots = append(n.Slots, story.Use(story.Transition{
				Condition: story.Option(k, count),
				Target:    target,
				Entry:     story.NoEntry,
			}))
		}
		if d := a.DefaultOption; d != nil {
			switch {
			case *d < 0 || *d >= count:
				r.finding(story.FindingDanglingReference, story.SeverityError, idx,
					fmt.Sprintf("defaultOption %d outside %d options", *d, count))
			case n.Slots[*d].Used:
				n.Slots[*d].Default = true
			}
		}
		r.RawNodes = append(r.RawNodes, n)
	}

	if r.RootIndex < 0 {
		r.RootIndex = 0
	}
	return nil
}

// link converts an optional stage link into a slot. The second result is
// false when the link is absent or names an unknown action node.
func (r *Raw) link(node int, field string, l *Link, c story.Condition, actions map[string]int) (story.Slot, bool) {
	if l == nil {
		return story.Slot{}, false
	}
	target, ok := actions[l.ActionNode]
	if !ok {
		r.finding(story.FindingDanglingReference, story.SeverityError, node,
			fmt.Sprintf("%s names unknown action node %q", field, l.ActionNode))
		return story.Slot{}, false
	}
	entry := l.OptionIndex
	if entry == -1 {
		entry = story.RandomEntry
	}
	return story.Use(story.Transition{Condition: c, Target: target, Entry: entry}), true
}

func (r *Raw) finding(kind story.FindingKind, sev story.Severity, node int, msg string) {
	r.DecodeFindings = append(r.DecodeFindings, story.Finding{
		Kind:     kind,
		Severity: sev,
		Node:     node,
		Slot:     -1,
		Message:  msg,
	})
}
