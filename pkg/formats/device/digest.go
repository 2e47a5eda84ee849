package device

import (
	"lukechampine.com/blake3"

	"github.com/matzehuels/storybox/pkg/story"
)

// Digest returns the pack index digest of a plain asset: the first
// story.DigestSize bytes of its BLAKE3-256 hash.
func Digest(data []byte) [story.DigestSize]byte {
	sum := blake3.Sum256(data)
	var d [story.DigestSize]byte
	copy(d[:], sum[:])
	return d
}
