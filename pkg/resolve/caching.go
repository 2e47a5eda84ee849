package resolve

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storybox/pkg/cache"
	"github.com/matzehuels/storybox/pkg/observability"
	"github.com/matzehuels/storybox/pkg/story"
)

// Caching wraps a Source and keeps resolved bytes in a cache. Cache
// failures are logged and never fail a resolve.
type Caching struct {
	src    Source
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// CachingOption configures a Caching source.
type CachingOption func(*Caching)

// WithKeyer replaces the default cache keyer.
func WithKeyer(k cache.Keyer) CachingOption {
	return func(c *Caching) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithCacheLogger sets the logger cache failures are reported to.
func WithCacheLogger(l *log.Logger) CachingOption {
	return func(c *Caching) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCaching returns src backed by c. A ttl of zero keeps entries forever.
func NewCaching(src Source, c cache.Cache, ttl time.Duration, opts ...CachingOption) *Caching {
	cs := &Caching{
		src:    src,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		ttl:    ttl,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Package implements Source.
func (c *Caching) Package() *story.Package { return c.src.Package() }

// Resolve implements Source.
func (c *Caching) Resolve(ctx context.Context, ref *story.AssetRef) ([]byte, error) {
	if ref == nil {
		return c.src.Resolve(ctx, ref)
	}
	pkg := c.src.Package()
	key := c.keyer.AssetKey(pkg.ID(), pkg.Info().StoryVersion, ref.Locator())

	data, hit, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("asset cache read failed", "asset", ref.Locator(), "err", err)
	case hit:
		observability.Cache().OnCacheHit(ctx, "asset")
		return data, nil
	default:
		observability.Cache().OnCacheMiss(ctx, "asset")
	}

	data, err = c.src.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("asset cache write failed", "asset", ref.Locator(), "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "asset", len(data))
	}
	return data, nil
}

var _ Source = (*Caching)(nil)
