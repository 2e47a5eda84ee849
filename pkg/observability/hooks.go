// Package observability lets the host application watch package loads,
// asset resolution and cache traffic without storybox depending on a
// metrics backend.
//
// Libraries report events through the registered hooks; the defaults do
// nothing. The CLI registers logging hooks under --verbose, a server
// deployment can register hooks feeding its own metrics system:
//
//	observability.SetLoadHooks(&promLoadHooks{})
//
// Hooks are called synchronously on the caller's goroutine and must be safe
// for concurrent use.
package observability

import (
	"context"
	"sync"
	"time"
)

// LoadHooks receives events from the package loader.
type LoadHooks interface {
	OnLoadStart(ctx context.Context, path string)
	// OnLoadComplete reports the outcome. format is empty when detection
	// failed.
	OnLoadComplete(ctx context.Context, path, format string, nodes int, duration time.Duration, err error)
}

// ResolveHooks receives events from the asset resolver.
type ResolveHooks interface {
	OnResolve(ctx context.Context, packageID, locator string, size int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopLoadHooks ignores load events.
type NoopLoadHooks struct{}

func (NoopLoadHooks) OnLoadStart(context.Context, string)                                       {}
func (NoopLoadHooks) OnLoadComplete(context.Context, string, string, int, time.Duration, error) {}

// NoopResolveHooks ignores resolve events.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolve(context.Context, string, string, int, time.Duration, error) {}

// NoopCacheHooks ignores cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	loadHooks    LoadHooks    = NoopLoadHooks{}
	resolveHooks ResolveHooks = NoopResolveHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetLoadHooks registers load hooks. Nil is ignored.
func SetLoadHooks(h LoadHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		loadHooks = h
	}
}

// SetResolveHooks registers resolve hooks. Nil is ignored.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Load returns the registered load hooks.
func Load() LoadHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return loadHooks
}

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	loadHooks = NoopLoadHooks{}
	resolveHooks = NoopResolveHooks{}
	cacheHooks = NoopCacheHooks{}
}
