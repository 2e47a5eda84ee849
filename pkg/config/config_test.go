package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("exists should be false")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL.Duration != defaultCacheTTL {
		t.Errorf("Cache.TTL = %s, want %s", cfg.Cache.TTL, defaultCacheTTL)
	}
	if !filepath.IsAbs(cfg.Library.Dir) || !filepath.IsAbs(cfg.Cache.Dir) {
		t.Errorf("paths should be expanded: %q, %q", cfg.Library.Dir, cfg.Cache.Dir)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[library]
dir = "/srv/stories"
exclude = ["**/drafts"]

[keys]
device = "00112233445566778899aabbccddeeff"

[keys.packs]
FOREST01 = " 666f726573742d7061636b2d6b657921 "

[cache]
backend = "Redis"
redis_addr = "cache:6379"
ttl = "90m"

[catalog]
backend = "sqlite"

[log]
level = "DEBUG"
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Error("exists should be true")
	}
	if cfg.Library.Dir != "/srv/stories" {
		t.Errorf("Library.Dir = %q", cfg.Library.Dir)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache.TTL = %s, want 1h30m", cfg.Cache.TTL)
	}
	if !strings.HasSuffix(cfg.Catalog.DSN, "catalog.db") || !filepath.IsAbs(cfg.Catalog.DSN) {
		t.Errorf("Catalog.DSN = %q, want expanded default sqlite path", cfg.Catalog.DSN)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}

	kp, err := cfg.KeyProvider()
	if err != nil {
		t.Fatalf("KeyProvider: %v", err)
	}
	k, err := kp.PackKey("forest01")
	if err != nil {
		t.Fatalf("PackKey: %v", err)
	}
	if string(k) != "forest-pack-key!" {
		t.Errorf("PackKey = %q", k)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[cache\n", "parse config"},
		{"unknown key", "[cache]\ncolour = \"red\"\n", "unknown keys cache.colour"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"bad ttl", "[cache]\nttl = \"soon\"\n", "parse config"},
		{"negative ttl", "[cache]\nttl = \"-1h\"\n", "cache.ttl"},
		{"bad catalog", "[catalog]\nbackend = \"postgres\"\n", "catalog.backend"},
		{"bad key", "[keys]\ndevice = \"xyz\"\n", "keys"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"bad exclude", "[library]\nexclude = [\"[\"]\n", "library.exclude"},
		{"empty addr", "[server]\naddr = \"\"\n", "server.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, _, _, err := Load(writeConfig(t, SampleConfig()))
	if err != nil {
		t.Fatalf("sample config: %v", err)
	}
	want := Default()
	if cfg.Cache.TTL != want.Cache.TTL || cfg.Server.Addr != want.Server.Addr {
		t.Errorf("sample config drifted from defaults: %+v", cfg)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/stories", filepath.Join(home, "stories")},
		{"/a/../b", "/b"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
