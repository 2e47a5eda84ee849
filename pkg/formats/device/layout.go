package device

import (
	"encoding/binary"
)

// File names inside a device package directory.
const (
	NodeIndexFile       = "ni"
	PackIndexFile       = "pi"
	AssetBlobFile       = "pk"
	NightModeFile       = "nm"
	FactoryDisabledFile = ".factory_disabled"
)

// Node index layout.
const (
	NodeMagic      = "STNI"
	NodeVersion    = 1
	HeaderSize     = 0x200
	NodeRecordSize = 0x4C
	MaxSlots       = 8
	slotSize       = 8
	slotsOffset    = 0x0C
)

// Pack index layout.
const (
	PackMagic      = "STPI"
	PackVersion    = 1
	PackHeaderSize = 16
	PackEntrySize  = 0x2C
	packBodySize   = PackEntrySize - 4
)

// Control flag bits of a node record.
const (
	FlagWheel uint16 = 1 << iota
	FlagOk
	FlagHome
	FlagPause
	FlagAutoplay
	FlagNoMedia
	FlagEntry
)

// Slot flag bits.
const (
	SlotDefault uint8 = 1 << iota
)

// Entry option bytes with special meaning.
const (
	EntryNone   = 0xFF
	EntryRandom = 0xFE
)

// Unused marks an empty slot target or asset reference.
const Unused = -1

// Header is the decoded node index header.
type Header struct {
	FormatVersion   uint16
	StoryVersion    uint16
	NodesOffset     uint32
	NodeSize        uint32
	NodeCount       uint32
	ImageCount      uint32
	SoundCount      uint32
	FactoryDisabled bool
	NightMode       bool
}

func decodeHeader(b []byte) Header {
	le := binary.LittleEndian
	return Header{
		FormatVersion:   le.Uint16(b[0x04:]),
		StoryVersion:    le.Uint16(b[0x06:]),
		NodesOffset:     le.Uint32(b[0x08:]),
		NodeSize:        le.Uint32(b[0x0C:]),
		NodeCount:       le.Uint32(b[0x10:]),
		ImageCount:      le.Uint32(b[0x14:]),
		SoundCount:      le.Uint32(b[0x18:]),
		FactoryDisabled: b[0x1C] != 0,
		NightMode:       b[0x1D] != 0,
	}
}

// Record is a decoded node record.
type Record struct {
	Kind  uint16
	Flags uint16
	Image int32
	Audio int32
	Slots [MaxSlots]RecordSlot
}

// RecordSlot is one transition slot of a node record.
type RecordSlot struct {
	Target int32
	Kind   uint8
	Option uint8
	Count  uint8
	Flags  uint8
}

func decodeRecord(b []byte) Record {
	le := binary.LittleEndian
	r := Record{
		Kind:  le.Uint16(b[0x00:]),
		Flags: le.Uint16(b[0x02:]),
		Image: int32(le.Uint32(b[0x04:])),
		Audio: int32(le.Uint32(b[0x08:])),
	}
	for i := range r.Slots {
		s := b[slotsOffset+i*slotSize:]
		r.Slots[i] = RecordSlot{
			Target: int32(le.Uint32(s[0:])),
			Kind:   s[4],
			Option: s[5],
			Count:  s[6],
			Flags:  s[7],
		}
	}
	return r
}

// packBody is the part of a pack index entry that may be sealed.
type packBody struct {
	Offset uint32
	Length uint32
	Digest [16]byte
	Key    [16]byte
}

func decodePackBody(b []byte) packBody {
	le := binary.LittleEndian
	var p packBody
	p.Offset = le.Uint32(b[0:])
	p.Length = le.Uint32(b[4:])
	copy(p.Digest[:], b[8:24])
	copy(p.Key[:], b[24:40])
	return p
}
