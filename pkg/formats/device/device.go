// Package device decodes the binary story package format used on devices.
//
// # Layout
//
// A device package is a directory holding:
//
//   - ni: a 512-byte header followed by fixed-size node records
//   - pi: the pack index, one entry per asset blob
//   - pk: the asset blobs, addressed by pack index offsets
//   - nm: optional marker, the story supports night mode
//   - .factory_disabled: optional marker, the story is hidden
//
// All integers are little-endian. Each node record holds a kind, control
// flags, two asset references into the pack index and [MaxSlots] transition
// slots; a slot whose target is -1 is unused.
//
// # Obfuscation
//
// Pack index entries can be sealed: their 40-byte body is obfuscated with
// the package's pack key, obtained from a [keys.Provider]. Entries in turn
// describe whether the asset bytes are obfuscated, entirely or only in
// their first 512 bytes, and carry the per-asset key. Asset bytes are not
// read here; that is the resolver's job.
//
// # Findings
//
// Transition targets outside the node table and asset references outside
// the pack index do not stop decoding. They are recorded as error findings
// and the validator rejects the package with every problem listed.
package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/storybox/pkg/cipher"
	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/formats"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
)

// Parser decodes device packages.
type Parser struct{}

// Format implements formats.Parser.
func (Parser) Format() story.Format { return story.FormatDevice }

// Raw is a decoded device package.
type Raw struct {
	story.RawPackage
	Header Header
	index  *story.PackIndex
}

// PackIndex returns the decoded asset table.
func (r *Raw) PackIndex() *story.PackIndex { return r.index }

// Parse implements formats.Parser.
func (p Parser) Parse(ctx context.Context, fsys storage.FS, opts formats.Options) (story.RawGraph, error) {
	opts = opts.WithDefaults()
	id := opts.ID
	if id == "" {
		id = string(story.FormatDevice)
	}

	ni, err := fsys.ReadFile(NodeIndexFile)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFormat, "no %s node index", NodeIndexFile)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", NodeIndexFile)
	}
	h, err := readHeader(ni)
	if err != nil {
		return nil, err
	}
	if h.NodeCount == 0 {
		return nil, errors.New(errors.ErrCodeEmptyPackage, "package %q declares no nodes", id)
	}
	end := uint64(h.NodesOffset) + uint64(h.NodeCount)*uint64(h.NodeSize)
	if end > uint64(len(ni)) {
		return nil, errors.New(errors.ErrCodeTruncatedData,
			"%d node records need %d bytes, %s has %d", h.NodeCount, end, NodeIndexFile, len(ni))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := readPackIndex(fsys, id, opts)
	if err != nil {
		return nil, err
	}

	raw := &Raw{
		Header: h,
		index:  story.NewPackIndex(entries),
		RawPackage: story.RawPackage{
			PackageFormat: story.FormatDevice,
			PackageID:     id,
			PackageInfo: story.Info{
				Title:           id,
				FormatVersion:   int(h.FormatVersion),
				StoryVersion:    int(h.StoryVersion),
				NightMode:       h.NightMode || storage.Exists(fsys, NightModeFile),
				FactoryDisabled: h.FactoryDisabled || storage.Exists(fsys, FactoryDisabledFile),
			},
		},
	}
	if err := raw.decodeNodes(ni[h.NodesOffset:end], int(h.NodeCount)); err != nil {
		return nil, err
	}
	opts.Logger.Debug("decoded device package", "id", id,
		"nodes", h.NodeCount, "assets", len(entries), "findings", len(raw.DecodeFindings))
	return raw, nil
}

func readHeader(ni []byte) (Header, error) {
	if len(ni) < len(NodeMagic) || string(ni[:len(NodeMagic)]) != NodeMagic {
		return Header{}, errors.New(errors.ErrCodeFormat, "%s lacks the %q magic", NodeIndexFile, NodeMagic)
	}
	if len(ni) < HeaderSize {
		return Header{}, errors.New(errors.ErrCodeTruncatedData,
			"%s header needs %d bytes, got %d", NodeIndexFile, HeaderSize, len(ni))
	}
	h := decodeHeader(ni)
	switch {
	case h.FormatVersion != NodeVersion:
		return h, errors.New(errors.ErrCodeFormat, "unsupported node index version %d", h.FormatVersion)
	case h.NodeSize != NodeRecordSize:
		return h, errors.New(errors.ErrCodeFormat, "unsupported node record size %#x", h.NodeSize)
	case h.NodesOffset < HeaderSize:
		return h, errors.New(errors.ErrCodeCorruptData, "node list offset %#x overlaps the header", h.NodesOffset)
	}
	return h, nil
}

func readPackIndex(fsys storage.FS, id string, opts formats.Options) ([]story.PackEntry, error) {
	pi, err := fsys.ReadFile(PackIndexFile)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeTruncatedData, "pack index %s is missing", PackIndexFile)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", PackIndexFile)
	}
	if len(pi) < PackHeaderSize {
		return nil, errors.New(errors.ErrCodeTruncatedData,
			"pack index header needs %d bytes, got %d", PackHeaderSize, len(pi))
	}
	le := binary.LittleEndian
	if string(pi[:4]) != PackMagic {
		return nil, errors.New(errors.ErrCodeCorruptData, "%s lacks the %q magic", PackIndexFile, PackMagic)
	}
	if v := le.Uint16(pi[4:]); v != PackVersion {
		return nil, errors.New(errors.ErrCodeCorruptData, "unsupported pack index version %d", v)
	}
	if size := le.Uint16(pi[6:]); size != PackEntrySize {
		return nil, errors.New(errors.ErrCodeCorruptData, "unsupported pack entry size %#x", size)
	}
	count := le.Uint32(pi[8:])
	end := uint64(PackHeaderSize) + uint64(count)*PackEntrySize
	if end > uint64(len(pi)) {
		return nil, errors.New(errors.ErrCodeTruncatedData,
			"%d pack entries need %d bytes, %s has %d", count, end, PackIndexFile, len(pi))
	}

	var packKey []byte
	packKeyFor := func() ([]byte, error) {
		if packKey == nil {
			k, err := opts.Keys.PackKey(id)
			if err != nil {
				return nil, err
			}
			packKey = k
		}
		return packKey, nil
	}

	entries := make([]story.PackEntry, count)
	for i := range entries {
		off := PackHeaderSize + i*PackEntrySize
		flags := story.PackFlags(le.Uint32(pi[off:]))
		body := pi[off+4 : off+PackEntrySize]
		if flags.Has(story.PackSealed) {
			k, err := packKeyFor()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeKey, err, "pack entry %d is sealed", i)
			}
			if body, err = cipher.Deobfuscate(body, k); err != nil {
				return nil, errors.Wrap(errors.ErrCodeKey, err, "pack entry %d", i)
			}
		}
		b := decodePackBody(body)
		e := story.PackEntry{
			Offset: b.Offset,
			Length: b.Length,
			Flags:  flags,
			Digest: b.Digest,
		}
		switch {
		case b.Key != [16]byte{}:
			e.Key = b.Key[:]
		case flags.Has(story.PackObfuscated):
			// A zero entry key means the asset shares the pack key. A
			// missing pack key only matters once the asset is resolved.
			if k, err := packKeyFor(); err == nil {
				e.Key = k
			}
		}
		entries[i] = e
	}
	return entries, nil
}

func (r *Raw) decodeNodes(table []byte, count int) error {
	ns := uuid.NewSHA1(uuid.NameSpaceURL, []byte("storybox:device:"+r.PackageID))
	refs := make(map[[2]int]*story.AssetRef)
	r.RawNodes = make([]story.RawNode, count)
	r.RootIndex = -1

	for i := range count {
		rec := decodeRecord(table[i*NodeRecordSize : (i+1)*NodeRecordSize])
		n := story.RawNode{
			ID: uuid.NewSHA1(ns, []byte(strconv.Itoa(i))).String(),
			Controls: story.Controls{
				Wheel:    rec.Flags&FlagWheel != 0,
				Ok:       rec.Flags&FlagOk != 0,
				Home:     rec.Flags&FlagHome != 0,
				Pause:    rec.Flags&FlagPause != 0,
				Autoplay: rec.Flags&FlagAutoplay != 0,
			},
			NoMedia: rec.Flags&FlagNoMedia != 0,
			Entry:   rec.Flags&FlagEntry != 0,
		}
		switch rec.Kind {
		case 0:
			n.Kind = story.KindStage
		case 1:
			n.Kind = story.KindAction
		default:
			return errors.New(errors.ErrCodeCorruptData, "node %d has unknown kind %d", i, rec.Kind)
		}
		if n.Entry {
			if r.RootIndex < 0 {
				r.RootIndex = i
			} else {
				r.finding(story.FindingDuplicateEntry, story.SeverityWarning, i, -1,
					fmt.Sprintf("node %d is already the entry node", r.RootIndex))
			}
		}
		n.Image = r.assetRef(refs, i, rec.Image, story.AssetImage)
		n.Audio = r.assetRef(refs, i, rec.Audio, story.AssetAudio)

		n.Slots = make([]story.Slot, MaxSlots)
		for s, rs := range rec.Slots {
			if rs.Target == Unused {
				continue
			}
			slot, err := decodeSlot(rs)
			if err != nil {
				return errors.Wrap(errors.ErrCodeCorruptData, err, "node %d slot %d", i, s)
			}
			if rs.Target < 0 || int(rs.Target) >= count {
				r.finding(story.FindingDanglingTransition, story.SeverityError, i, s,
					fmt.Sprintf("target %d outside %d records", rs.Target, count))
			}
			n.Slots[s] = slot
		}
		r.RawNodes[i] = n
	}

	if r.RootIndex < 0 {
		r.RootIndex = 0
	}
	r.RawNodes[r.RootIndex].ID = r.PackageID
	return nil
}

func decodeSlot(rs RecordSlot) (story.Slot, error) {
	t := story.Transition{
		Target:  int(rs.Target),
		Entry:   story.NoEntry,
		Default: rs.Flags&SlotDefault != 0,
	}
	kind := story.ConditionKind(rs.Kind)
	switch kind {
	case story.CondOption:
		t.Condition = story.Option(int(rs.Option), int(rs.Count))
	case story.CondAlways, story.CondOk, story.CondHome, story.CondTimeout:
		t.Condition = story.Condition{Kind: kind}
		switch rs.Option {
		case EntryNone:
		case EntryRandom:
			t.Entry = story.RandomEntry
		default:
			t.Entry = int(rs.Option)
		}
	default:
		return story.Slot{}, fmt.Errorf("unknown condition kind %d", rs.Kind)
	}
	return story.Use(t), nil
}

// assetRef returns the shared ref for pack entry idx, recording a finding
// when idx is outside the pack index.
func (r *Raw) assetRef(refs map[[2]int]*story.AssetRef, node int, idx int32, kind story.AssetKind) *story.AssetRef {
	if idx == Unused {
		return nil
	}
	e, ok := r.index.Entry(int(idx))
	if !ok {
		r.finding(story.FindingDanglingReference, story.SeverityError, node, -1,
			fmt.Sprintf("%s entry %d outside pack index of %d", kind, idx, r.index.Len()))
		return nil
	}
	key := [2]int{int(idx), int(kind)}
	if ref, ok := refs[key]; ok {
		return ref
	}
	ref := story.NewDeviceAsset(kind, int(idx), e)
	refs[key] = ref
	return ref
}

func (r *Raw) finding(kind story.FindingKind, sev story.Severity, node, slot int, msg string) {
	r.DecodeFindings = append(r.DecodeFindings, story.Finding{
		Kind:     kind,
		Severity: sev,
		Node:     node,
		Slot:     slot,
		Message:  msg,
	})
}
