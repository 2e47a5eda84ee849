package storyio

import (
	"fmt"
	"math"

	"github.com/matzehuels/storybox/pkg/story"
)

// Version is the snapshot schema version written by this package.
const Version = 1

// Snapshot is the serializable form of a loaded package: metadata, nodes,
// the asset table and the validation report. Key material is never part of
// a snapshot.
type Snapshot struct {
	Version int          `json:"version" yaml:"version"`
	ID      string       `json:"id" yaml:"id"`
	Format  story.Format `json:"format" yaml:"format"`
	Info    story.Info   `json:"info" yaml:"info"`
	Root    int          `json:"root" yaml:"root"`
	Nodes   []node       `json:"nodes" yaml:"nodes"`
	Assets  []asset      `json:"assets,omitempty" yaml:"assets,omitempty"`
	Report  story.Report `json:"report" yaml:"report"`
}

type node struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Kind        string         `json:"kind" yaml:"kind"`
	Entry       bool           `json:"entry,omitempty" yaml:"entry,omitempty"`
	NoMedia     bool           `json:"no_media,omitempty" yaml:"no_media,omitempty"`
	Controls    story.Controls `json:"controls" yaml:"controls"`
	Image       *int           `json:"image,omitempty" yaml:"image,omitempty"`
	Audio       *int           `json:"audio,omitempty" yaml:"audio,omitempty"`
	Transitions []transition   `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

type transition struct {
	Condition string `json:"condition" yaml:"condition"`
	Option    int    `json:"option,omitempty" yaml:"option,omitempty"`
	Options   int    `json:"options,omitempty" yaml:"options,omitempty"`
	Target    int    `json:"target" yaml:"target"`
	Entry     int    `json:"entry" yaml:"entry"`
	Default   bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

type asset struct {
	Kind       string `json:"kind" yaml:"kind"`
	Locator    string `json:"locator" yaml:"locator"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	Index      int    `json:"index,omitempty" yaml:"index,omitempty"`
	Offset     int64  `json:"offset,omitempty" yaml:"offset,omitempty"`
	Length     int64  `json:"length,omitempty" yaml:"length,omitempty"`
	Obfuscated bool   `json:"obfuscated,omitempty" yaml:"obfuscated,omitempty"`
	HeaderOnly bool   `json:"header_only,omitempty" yaml:"header_only,omitempty"`
}

// FromPackage captures pkg as a snapshot. Nodes sharing one asset reference
// point at the same asset table row.
func FromPackage(pkg *story.Package) *Snapshot {
	g := pkg.Graph()
	s := &Snapshot{
		Version: Version,
		ID:      pkg.ID(),
		Format:  pkg.Format(),
		Info:    pkg.Info(),
		Root:    g.RootIndex(),
		Report:  pkg.Report(),
	}

	rows := make(map[*story.AssetRef]int)
	row := func(ref *story.AssetRef) *int {
		if ref == nil {
			return nil
		}
		i, ok := rows[ref]
		if !ok {
			i = len(s.Assets)
			rows[ref] = i
			s.Assets = append(s.Assets, asset{
				Kind:       ref.Kind().String(),
				Locator:    ref.Locator(),
				Path:       ref.Path(),
				Index:      ref.Index(),
				Offset:     ref.Offset(),
				Length:     ref.Length(),
				Obfuscated: ref.Obfuscated(),
				HeaderOnly: ref.HeaderOnly(),
			})
		}
		return &i
	}

	for _, n := range g.Nodes() {
		nd := node{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     n.Kind.String(),
			Entry:    n.Entry,
			NoMedia:  n.NoMedia,
			Controls: n.Controls,
			Image:    row(n.Image),
			Audio:    row(n.Audio),
		}
		for _, t := range n.Transitions {
			tr := transition{
				Condition: t.Condition.Kind.String(),
				Target:    t.Target,
				Entry:     t.Entry,
				Default:   t.Default,
			}
			if t.Condition.Kind == story.CondOption {
				tr.Option = t.Condition.Index + 1
				tr.Options = t.Condition.Count
			}
			nd.Transitions = append(nd.Transitions, tr)
		}
		s.Nodes = append(s.Nodes, nd)
	}
	return s
}

var conditionKinds = map[string]story.ConditionKind{
	story.CondAlways.String():  story.CondAlways,
	story.CondOption.String():  story.CondOption,
	story.CondOk.String():      story.CondOk,
	story.CondHome.String():    story.CondHome,
	story.CondTimeout.String(): story.CondTimeout,
}

var nodeKinds = map[string]story.NodeKind{
	story.KindStage.String():  story.KindStage,
	story.KindAction.String(): story.KindAction,
}

var assetKinds = map[string]story.AssetKind{
	story.AssetImage.String(): story.AssetImage,
	story.AssetAudio.String(): story.AssetAudio,
}

// Raw converts the snapshot back into a raw graph that [story.Build] and
// the validator accept. Asset rows referenced by several nodes become one
// shared *story.AssetRef.
func (s *Snapshot) Raw() (*story.RawPackage, error) {
	if s.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.Format != story.FormatDevice && s.Format != story.FormatStudio {
		return nil, fmt.Errorf("unknown format %q", s.Format)
	}

	refs := make([]*story.AssetRef, len(s.Assets))
	for i, a := range s.Assets {
		kind, ok := assetKinds[a.Kind]
		if !ok {
			return nil, fmt.Errorf("asset %d: unknown kind %q", i, a.Kind)
		}
		if s.Format == story.FormatStudio {
			refs[i] = story.NewStudioAsset(kind, a.Path)
			continue
		}
		if a.Offset < 0 || a.Length < 0 || a.Offset > math.MaxUint32 || a.Length > math.MaxUint32 {
			return nil, fmt.Errorf("asset %d: range %d+%d out of bounds", i, a.Offset, a.Length)
		}
		var flags story.PackFlags
		if a.Obfuscated {
			flags |= story.PackObfuscated
		}
		if a.HeaderOnly {
			flags |= story.PackHeaderOnly
		}
		refs[i] = story.NewDeviceAsset(kind, a.Index, story.PackEntry{
			Offset: uint32(a.Offset),
			Length: uint32(a.Length),
			Flags:  flags,
		})
	}
	ref := func(i *int) (*story.AssetRef, error) {
		if i == nil {
			return nil, nil
		}
		if *i < 0 || *i >= len(refs) {
			return nil, fmt.Errorf("asset row %d out of range", *i)
		}
		return refs[*i], nil
	}

	raw := &story.RawPackage{
		PackageFormat: s.Format,
		PackageID:     s.ID,
		PackageInfo:   s.Info,
		RootIndex:     s.Root,
		RawNodes:      make([]story.RawNode, len(s.Nodes)),
	}
	for i, n := range s.Nodes {
		kind, ok := nodeKinds[n.Kind]
		if !ok {
			return nil, fmt.Errorf("node %d: unknown kind %q", i, n.Kind)
		}
		rn := story.RawNode{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     kind,
			Controls: n.Controls,
			NoMedia:  n.NoMedia,
			Entry:    n.Entry,
		}
		var err error
		if rn.Image, err = ref(n.Image); err != nil {
			return nil, fmt.Errorf("node %d image: %w", i, err)
		}
		if rn.Audio, err = ref(n.Audio); err != nil {
			return nil, fmt.Errorf("node %d audio: %w", i, err)
		}
		for j, t := range n.Transitions {
			ck, ok := conditionKinds[t.Condition]
			if !ok {
				return nil, fmt.Errorf("node %d transition %d: unknown condition %q", i, j, t.Condition)
			}
			c := story.Condition{Kind: ck}
			if ck == story.CondOption {
				c = story.Option(t.Option-1, t.Options)
			}
			rn.Slots = append(rn.Slots, story.Use(story.Transition{
				Condition: c,
				Target:    t.Target,
				Entry:     t.Entry,
				Default:   t.Default,
			}))
		}
		raw.RawNodes[i] = rn
	}
	return raw, nil
}
