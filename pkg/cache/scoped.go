package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "storybox:living-room:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses the
// default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AssetKey implements Keyer.
func (k *ScopedKeyer) AssetKey(packageID string, storyVersion int, locator string) string {
	return k.prefix + k.inner.AssetKey(packageID, storyVersion, locator)
}

// SnapshotKey implements Keyer.
func (k *ScopedKeyer) SnapshotKey(packageID string, storyVersion int, format string) string {
	return k.prefix + k.inner.SnapshotKey(packageID, storyVersion, format)
}
