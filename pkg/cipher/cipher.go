// Package cipher implements the byte obfuscation used by device-format story
// packages.
//
// The transform is a keystream XOR: keystream block i is the XXTEA
// encryption of the little-endian counter block (i, i>>32) under a 128-bit
// key, using the round count of the device firmware (1 + 52/n instead of the
// reference 6 + 52/n). Because the keystream only depends on the key and the
// block position, applying the transform twice with the same key yields the
// original bytes:
//
//	plain, err := cipher.Deobfuscate(sealed, key)
//	again, _ := cipher.Deobfuscate(plain, key) // == sealed
//
// Devices only protect the first [HeaderSize] bytes of some assets;
// [DeobfuscateHeader] applies the transform to that prefix and copies the
// remainder unchanged.
package cipher

import (
	"encoding/binary"

	"github.com/matzehuels/storybox/pkg/errors"
)

const (
	// KeySize is the length of a key in bytes.
	KeySize = 16
	// BlockSize is the keystream granularity in bytes.
	BlockSize = 8
	// HeaderSize is the length of the prefix protected in header-only mode.
	HeaderSize = 512
)

const delta uint32 = 0x9E3779B9

// Cipher holds an expanded key. A Cipher carries no position state and is
// safe for concurrent use.
type Cipher struct {
	key [4]uint32
}

// NewCipher validates key and returns a Cipher for it. A nil or wrongly
// sized key yields a KEY error.
func NewCipher(key []byte) (*Cipher, error) {
	if key == nil {
		return nil, errors.New(errors.ErrCodeKey, "key material missing")
	}
	if len(key) != KeySize {
		return nil, errors.New(errors.ErrCodeKey, "key must be %d bytes, got %d", KeySize, len(key))
	}
	c := &Cipher{}
	for i := range c.key {
		c.key[i] = binary.LittleEndian.Uint32(key[i*4:])
	}
	return c, nil
}

// XORKeyStream transforms src into dst starting at stream position 0.
// dst must be at least len(src) bytes and may alias src exactly.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	c.XORKeyStreamAt(dst, src, 0)
}

// XORKeyStreamAt transforms src into dst as if src started at byte offset
// off of the stream. It lets callers process a blob in arbitrary chunks.
func (c *Cipher) XORKeyStreamAt(dst, src []byte, off int64) {
	if len(dst) < len(src) {
		panic("cipher: output smaller than input")
	}
	var ks [BlockSize]byte
	block := uint64(off / BlockSize)
	skip := int(off % BlockSize)
	for i := 0; i < len(src); {
		c.keystream(block, &ks)
		n := min(BlockSize-skip, len(src)-i)
		for j := range n {
			dst[i+j] = src[i+j] ^ ks[skip+j]
		}
		i += n
		skip = 0
		block++
	}
}

func (c *Cipher) keystream(counter uint64, out *[BlockSize]byte) {
	v := [2]uint32{uint32(counter), uint32(counter >> 32)}
	encrypt(v[:], &c.key)
	binary.LittleEndian.PutUint32(out[0:], v[0])
	binary.LittleEndian.PutUint32(out[4:], v[1])
}

// Deobfuscate returns a new buffer holding buf transformed under key.
// The input is never modified. The same call re-obfuscates its own output.
func Deobfuscate(buf, key []byte) ([]byte, error) {
	c, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(buf))
	c.XORKeyStream(out, buf)
	return out, nil
}

// DeobfuscateHeader transforms only the first HeaderSize bytes of buf and
// copies the rest verbatim into the returned buffer.
func DeobfuscateHeader(buf, key []byte) ([]byte, error) {
	c, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(buf))
	n := min(len(buf), HeaderSize)
	c.XORKeyStream(out[:n], buf[:n])
	copy(out[n:], buf[n:])
	return out, nil
}

// encrypt runs the XXTEA block encryption in place with the device round
// count. len(v) must be at least 2.
func encrypt(v []uint32, k *[4]uint32) {
	n := len(v)
	rounds := 1 + 52/n
	var sum uint32
	z := v[n-1]
	for ; rounds > 0; rounds-- {
		sum += delta
		e := (sum >> 2) & 3
		for p := 0; p < n; p++ {
			y := v[(p+1)%n]
			v[p] += mx(sum, y, z, uint32(p), e, k)
			z = v[p]
		}
	}
}

func mx(sum, y, z, p, e uint32, k *[4]uint32) uint32 {
	return ((z>>5 ^ y<<2) + (y>>3 ^ z<<4)) ^ ((sum ^ y) + (k[(p&3)^e] ^ z))
}
