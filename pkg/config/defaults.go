package config

import "time"

const (
	defaultConfigPath    = "~/.config/storybox/config.toml"
	defaultLibraryDir    = "~/.local/share/storybox/library"
	defaultCacheBackend  = "file"
	defaultCacheDir      = "~/.cache/storybox"
	defaultCacheTTL      = 7 * 24 * time.Hour
	defaultRedisAddr     = "localhost:6379"
	defaultCatalogSQLite = "~/.local/share/storybox/catalog.db"
	defaultCatalogMongo  = "mongodb://localhost:27017"
	defaultCatalogDB     = "storybox"
	defaultServerAddr    = "127.0.0.1:7480"
	defaultLogLevel      = "info"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Catalog backends.
const (
	CatalogMemory = "memory"
	CatalogSQLite = "sqlite"
	CatalogMongo  = "mongo"
)

// Default returns the configuration used when no file sets a value.
func Default() Config {
	return Config{
		Library: Library{Dir: defaultLibraryDir},
		Cache: Cache{
			Backend:   defaultCacheBackend,
			Dir:       defaultCacheDir,
			RedisAddr: defaultRedisAddr,
			Prefix:    "storybox:",
			TTL:       Duration{defaultCacheTTL},
		},
		Catalog: Catalog{
			Backend:  CatalogMemory,
			Database: defaultCatalogDB,
		},
		Server: Server{Addr: defaultServerAddr},
		Log:    Log{Level: defaultLogLevel},
	}
}
