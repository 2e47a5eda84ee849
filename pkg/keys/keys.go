// Package keys supplies the key material device packages are obfuscated
// with.
//
// How devices derive their keys is not something storybox guesses at. Keys
// are opaque 16-byte values handed in by whoever provisions the reader,
// usually through the [keys] section of the configuration file:
//
//	[keys]
//	device = "0a7abd91a94054a76c9dd4bbe3c0dce0"
//
//	[keys.packs]
//	2643948D = "00112233445566778899aabbccddeeff"
package keys

import (
	"encoding/hex"
	"strings"

	"github.com/matzehuels/storybox/pkg/cipher"
	"github.com/matzehuels/storybox/pkg/errors"
)

// Provider returns the pack key for a device package.
type Provider interface {
	// PackKey returns the key for the package with the given identifier.
	// A provider without a key returns a KEY error.
	PackKey(packageID string) ([]byte, error)
}

// None is a Provider that never has a key.
var None Provider = none{}

type none struct{}

func (none) PackKey(id string) ([]byte, error) {
	return nil, errors.New(errors.ErrCodeKey, "no key provisioned for package %q", id)
}

// Static is a Provider backed by fixed keys: one per package identifier and
// an optional device-wide fallback.
type Static struct {
	packs    map[string][]byte
	fallback []byte
}

// NewStatic parses hex-encoded keys. Package identifiers are matched
// case-insensitively. An empty fallback means packages without their own
// key have none.
func NewStatic(fallback string, packs map[string]string) (*Static, error) {
	s := &Static{packs: make(map[string][]byte, len(packs))}
	if fallback != "" {
		k, err := Parse(fallback)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKey, err, "device key")
		}
		s.fallback = k
	}
	for id, v := range packs {
		k, err := Parse(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKey, err, "key for package %q", id)
		}
		s.packs[strings.ToUpper(id)] = k
	}
	return s, nil
}

// PackKey implements Provider.
func (s *Static) PackKey(id string) ([]byte, error) {
	if k, ok := s.packs[strings.ToUpper(id)]; ok {
		return clone(k), nil
	}
	if s.fallback != nil {
		return clone(s.fallback), nil
	}
	return None.PackKey(id)
}

// Parse decodes a hex key, ignoring surrounding whitespace and an optional
// 0x prefix.
func Parse(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	k, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKey, err, "key is not valid hex")
	}
	if len(k) != cipher.KeySize {
		return nil, errors.New(errors.ErrCodeKey, "key must be %d bytes, got %d", cipher.KeySize, len(k))
	}
	return k, nil
}

func clone(b []byte) []byte { return append([]byte(nil), b...) }
