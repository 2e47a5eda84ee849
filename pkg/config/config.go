// Package config loads the storybox configuration file.
//
// The file is TOML, by default ~/.config/storybox/config.toml. Every
// setting has a default, so a missing file is not an error. Loading runs
// three steps: defaults are applied, the file is decoded over them, then
// paths are expanded and the result is validated.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/storybox/pkg/keys"
)

//go:embed sample_config.toml
var sampleConfig string

// Library locates the story packages to scan and serve.
type Library struct {
	Dir string `toml:"dir"`
	// Exclude lists doublestar patterns, relative to Dir, of package
	// directories to skip.
	Exclude []string `toml:"exclude"`
}

// Keys holds hex-encoded pack keys.
type Keys struct {
	// Device is the fallback key for packages without their own entry.
	Device string `toml:"device"`
	// Packs maps package identifiers to keys.
	Packs map[string]string `toml:"packs"`
}

// Cache configures the resolved asset cache.
type Cache struct {
	Backend       string   `toml:"backend"` // none, file or redis
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
	TTL           Duration `toml:"ttl"`
}

// Catalog configures where scan results are stored.
type Catalog struct {
	Backend  string `toml:"backend"` // memory, sqlite or mongo
	DSN      string `toml:"dsn"`
	Database string `toml:"database"`
}

// Server configures `storybox serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures log output.
type Log struct {
	Level string `toml:"level"`
}

// Config is the complete storybox configuration.
type Config struct {
	Library Library `toml:"library"`
	Keys    Keys    `toml:"keys"`
	Cache   Cache   `toml:"cache"`
	Catalog Catalog `toml:"catalog"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
}

// Duration is a time.Duration written as a Go duration string ("72h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// SampleConfig returns a commented configuration file with every default.
func SampleConfig() string { return sampleConfig }

// Load reads the configuration at path, or at DefaultPath when path is
// empty. The second result is the file that was consulted; the third
// reports whether it existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		md, err := toml.DecodeFile(resolved, &cfg)
		if err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			names := make([]string, len(undecoded))
			for i, k := range undecoded {
				names[i] = k.String()
			}
			return nil, "", false, fmt.Errorf("parse config: unknown keys %s", strings.Join(names, ", "))
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// KeyProvider builds the pack key provider from the [keys] section.
func (c *Config) KeyProvider() (keys.Provider, error) {
	if c.Keys.Device == "" && len(c.Keys.Packs) == 0 {
		return keys.None, nil
	}
	return keys.NewStatic(c.Keys.Device, c.Keys.Packs)
}

func resolvePath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

// ExpandPath resolves a leading ~ and makes path absolute. The empty
// string is returned unchanged.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			path = home
		} else if len(path) > 1 && (path[1] == '/' || path[1] == '\\') {
			path = filepath.Join(home, path[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}
