// Package cache stores resolved asset bytes and exported snapshots between
// runs.
//
// Story packages themselves are never cached; they are immutable once
// loaded and cheap to load again. What is worth keeping is the output of
// expensive steps: deobfuscated, digest-checked asset blobs and rendered
// exports. Three backends implement [Cache]:
//
//   - [NullCache]: stores nothing, used with --no-cache
//   - [FileCache]: zstd-compressed entries under a local directory
//   - [RedisCache]: shared cache for `storybox serve` deployments
//
// Keys are built by a [Keyer] so that every caller spells them the same way.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// AssetKey identifies the resolved bytes of one asset of a package.
	AssetKey(packageID string, storyVersion int, locator string) string
	// SnapshotKey identifies an exported rendering of a package.
	SnapshotKey(packageID string, storyVersion int, format string) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AssetKey implements Keyer.
func (DefaultKeyer) AssetKey(packageID string, storyVersion int, locator string) string {
	return hashKey("asset", packageID, storyVersion, locator)
}

// SnapshotKey implements Keyer.
func (DefaultKeyer) SnapshotKey(packageID string, storyVersion int, format string) string {
	return hashKey("snapshot", packageID, storyVersion, format)
}
