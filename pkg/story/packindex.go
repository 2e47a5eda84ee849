package story

import "slices"

// PackFlags describe how a pack index entry is stored.
type PackFlags uint32

const (
	// PackObfuscated means the asset bytes are obfuscated with the entry key.
	PackObfuscated PackFlags = 1 << iota
	// PackSealed means the entry itself was stored obfuscated with the
	// package key. It is informational once the index is decoded.
	PackSealed
	// PackHeaderOnly restricts obfuscation to the asset's first 512 bytes.
	PackHeaderOnly
)

// Has reports whether all bits of f2 are set in f.
func (f PackFlags) Has(f2 PackFlags) bool { return f&f2 == f2 }

// DigestSize is the number of digest bytes stored per entry.
const DigestSize = 16

// PackEntry locates one asset blob inside a device package.
type PackEntry struct {
	Offset uint32
	Length uint32
	Flags  PackFlags
	// Digest is a truncated BLAKE3 hash of the plain asset. All zero means
	// the entry carries no digest.
	Digest [DigestSize]byte
	// Key is the per-asset key material.
	Key []byte
}

// HasDigest reports whether the entry carries a digest to check.
func (e PackEntry) HasDigest() bool {
	return e.Digest != [DigestSize]byte{}
}

// PackIndex is the read-only asset table of a device package.
type PackIndex struct {
	entries []PackEntry
}

// NewPackIndex copies entries into a new index.
func NewPackIndex(entries []PackEntry) *PackIndex {
	out := make([]PackEntry, len(entries))
	for i, e := range entries {
		e.Key = slices.Clone(e.Key)
		out[i] = e
	}
	return &PackIndex{entries: out}
}

// Len returns the number of entries. A nil index has none.
func (p *PackIndex) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Entry returns a copy of entry i.
func (p *PackIndex) Entry(i int) (PackEntry, bool) {
	if p == nil || i < 0 || i >= len(p.entries) {
		return PackEntry{}, false
	}
	e := p.entries[i]
	e.Key = slices.Clone(e.Key)
	return e, true
}
