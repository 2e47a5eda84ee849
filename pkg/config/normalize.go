package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeKeys()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Library.Dir, err = ExpandPath(c.Library.Dir); err != nil {
		return fmt.Errorf("library.dir: %w", err)
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Cache.Dir, err = ExpandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeKeys() {
	c.Keys.Device = strings.TrimSpace(c.Keys.Device)
	for id, k := range c.Keys.Packs {
		c.Keys.Packs[id] = strings.TrimSpace(k)
	}
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.Backend = strings.ToLower(strings.TrimSpace(c.Catalog.Backend))
	c.Catalog.DSN = strings.TrimSpace(c.Catalog.DSN)
	switch c.Catalog.Backend {
	case CatalogSQLite:
		if c.Catalog.DSN == "" {
			c.Catalog.DSN = defaultCatalogSQLite
		}
		if strings.HasPrefix(c.Catalog.DSN, "~") {
			p, err := ExpandPath(c.Catalog.DSN)
			if err != nil {
				return fmt.Errorf("catalog.dsn: %w", err)
			}
			c.Catalog.DSN = p
		}
	case CatalogMongo:
		if c.Catalog.DSN == "" {
			c.Catalog.DSN = defaultCatalogMongo
		}
	}
	return nil
}
