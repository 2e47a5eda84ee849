// Package testsupport writes synthetic story packages for tests.
package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/storybox/pkg/cipher"
	"github.com/matzehuels/storybox/pkg/formats/device"
	"github.com/matzehuels/storybox/pkg/story"
)

// DeviceNode describes one node record.
type DeviceNode struct {
	Action bool
	Flags  uint16
	Image  int32
	Audio  int32
	Slots  []device.RecordSlot
}

// DeviceAsset describes one pack index entry and its blob.
type DeviceAsset struct {
	Data []byte
	// Key obfuscates the blob when set. HeaderOnly limits it to the first
	// 512 bytes.
	Key        []byte
	HeaderOnly bool
	// SharedKey obfuscates the blob with the pack key and stores a zero
	// entry key.
	SharedKey bool
	// Seal obfuscates the entry body with the pack key.
	Seal bool
	// Digest stores the blob digest.
	Digest bool
	// Offset and Length override the entry's range when non-zero.
	Offset uint32
	Length uint32
}

// DevicePackage describes a device package directory.
type DevicePackage struct {
	Nodes        []DeviceNode
	Assets       []DeviceAsset
	PackKey      []byte
	StoryVersion uint16
	NightMode    bool
	// NightModeFile writes the nm marker file.
	NightModeFile   bool
	FactoryDisabled bool

	// NodeCount overrides the declared node count when non-zero.
	NodeCount uint32
	// OmitPackIndex skips writing pi.
	OmitPackIndex bool
	// OmitBlob skips writing pk.
	OmitBlob bool
}

// Slot returns a used transition slot.
func Slot(kind story.ConditionKind, target int32, option, count uint8) device.RecordSlot {
	return device.RecordSlot{Target: target, Kind: uint8(kind), Option: option, Count: count}
}

// DefaultSlot returns a used slot flagged as the node's default.
func DefaultSlot(kind story.ConditionKind, target int32, option, count uint8) device.RecordSlot {
	s := Slot(kind, target, option, count)
	s.Flags |= device.SlotDefault
	return s
}

// WriteDevice writes p into dir.
func WriteDevice(t testing.TB, dir string, p DevicePackage) {
	t.Helper()
	WriteFile(t, dir, device.NodeIndexFile, EncodeNodeIndex(p))
	if !p.OmitPackIndex || !p.OmitBlob {
		pi, pk := encodePack(t, p)
		if !p.OmitPackIndex {
			WriteFile(t, dir, device.PackIndexFile, pi)
		}
		if !p.OmitBlob {
			WriteFile(t, dir, device.AssetBlobFile, pk)
		}
	}
	if p.NightModeFile {
		WriteFile(t, dir, device.NightModeFile, nil)
	}
}

// EncodeNodeIndex returns the ni file for p.
func EncodeNodeIndex(p DevicePackage) []byte {
	le := binary.LittleEndian
	count := p.NodeCount
	if count == 0 {
		count = uint32(len(p.Nodes))
	}
	ni := make([]byte, device.HeaderSize+len(p.Nodes)*device.NodeRecordSize)
	copy(ni, device.NodeMagic)
	le.PutUint16(ni[0x04:], device.NodeVersion)
	le.PutUint16(ni[0x06:], p.StoryVersion)
	le.PutUint32(ni[0x08:], device.HeaderSize)
	le.PutUint32(ni[0x0C:], device.NodeRecordSize)
	le.PutUint32(ni[0x10:], count)
	le.PutUint32(ni[0x14:], uint32(len(p.Assets)))
	if p.FactoryDisabled {
		ni[0x1C] = 1
	}
	if p.NightMode {
		ni[0x1D] = 1
	}
	for i, n := range p.Nodes {
		rec := ni[device.HeaderSize+i*device.NodeRecordSize:]
		if n.Action {
			le.PutUint16(rec[0x00:], 1)
		}
		le.PutUint16(rec[0x02:], n.Flags)
		le.PutUint32(rec[0x04:], uint32(n.Image))
		le.PutUint32(rec[0x08:], uint32(n.Audio))
		for s := range device.MaxSlots {
			slot := rec[0x0C+s*8:]
			rs := device.RecordSlot{Target: device.Unused}
			if s < len(n.Slots) {
				rs = n.Slots[s]
			}
			le.PutUint32(slot[0:], uint32(rs.Target))
			slot[4], slot[5], slot[6], slot[7] = rs.Kind, rs.Option, rs.Count, rs.Flags
		}
	}
	return ni
}

func encodePack(t testing.TB, p DevicePackage) (pi, pk []byte) {
	t.Helper()
	le := binary.LittleEndian
	pi = make([]byte, device.PackHeaderSize+len(p.Assets)*device.PackEntrySize)
	copy(pi, device.PackMagic)
	le.PutUint16(pi[4:], device.PackVersion)
	le.PutUint16(pi[6:], device.PackEntrySize)
	le.PutUint32(pi[8:], uint32(len(p.Assets)))

	for i, a := range p.Assets {
		var flags story.PackFlags
		stored := a.Data
		var entryKey []byte
		switch {
		case a.SharedKey:
			flags |= story.PackObfuscated
			stored = obfuscate(t, a.Data, p.PackKey, a.HeaderOnly)
		case a.Key != nil:
			flags |= story.PackObfuscated
			entryKey = a.Key
			stored = obfuscate(t, a.Data, a.Key, a.HeaderOnly)
		}
		if a.HeaderOnly {
			flags |= story.PackHeaderOnly
		}
		if a.Seal {
			flags |= story.PackSealed
		}

		offset, length := uint32(len(pk)), uint32(len(stored))
		if a.Offset != 0 {
			offset = a.Offset
		}
		if a.Length != 0 {
			length = a.Length
		}
		pk = append(pk, stored...)

		body := make([]byte, 40)
		le.PutUint32(body[0:], offset)
		le.PutUint32(body[4:], length)
		if a.Digest {
			d := device.Digest(a.Data)
			copy(body[8:24], d[:])
		}
		copy(body[24:40], entryKey)
		if a.Seal {
			body = obfuscate(t, body, p.PackKey, false)
		}

		e := pi[device.PackHeaderSize+i*device.PackEntrySize:]
		le.PutUint32(e[0:], uint32(flags))
		copy(e[4:], body)
	}
	return pi, pk
}

func obfuscate(t testing.TB, data, key []byte, headerOnly bool) []byte {
	t.Helper()
	var (
		out []byte
		err error
	)
	if headerOnly {
		out, err = cipher.DeobfuscateHeader(data, key)
	} else {
		out, err = cipher.Deobfuscate(data, key)
	}
	if err != nil {
		t.Fatalf("obfuscate: %v", err)
	}
	return out
}

// WriteFile writes data to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir, name string, data []byte) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}
