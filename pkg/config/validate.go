package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if _, err := c.KeyProvider(); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	for _, p := range c.Library.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("library.exclude: invalid pattern %q", p)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be none, file or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Backend {
	case CatalogMemory:
	case CatalogSQLite:
	case CatalogMongo:
		if c.Catalog.Database == "" {
			return errors.New("catalog.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("catalog.backend must be memory, sqlite or mongo, got %q", c.Catalog.Backend)
	}
	return nil
}
