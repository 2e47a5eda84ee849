// Package cli implements the storybox command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/buildinfo"
	"github.com/matzehuels/storybox/pkg/cache"
	"github.com/matzehuels/storybox/pkg/catalog"
	"github.com/matzehuels/storybox/pkg/config"
	"github.com/matzehuels/storybox/pkg/loader"
)

const appName = "storybox"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a CLI that logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Storybox reads, checks and serves interactive story packages",
		Long:         `Storybox reads story packages in the binary device layout and the JSON studio layout, validates their story graphs and extracts their media.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/storybox/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.walkCommand())
	root.AddCommand(c.assetCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies its log level. --verbose wins
// over the configured level.
func (c *CLI) setup() error {
	cfg, path, found, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level, _ := log.ParseLevel(cfg.Log.Level)
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	if found {
		c.Logger.Debug("loaded config", "path", path)
	}
	return nil
}

// settings returns the loaded configuration, or the defaults when setup
// did not run.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		cfg := config.Default()
		c.cfg = &cfg
	}
	return c.cfg
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) newLoader() (*loader.Loader, error) {
	kp, err := c.settings().KeyProvider()
	if err != nil {
		return nil, err
	}
	return loader.New(loader.Options{Keys: kp, Logger: c.Logger}), nil
}

// newCache opens the configured asset cache and the keyer that goes with it.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	cfg := c.settings().Cache
	keyer := cache.NewDefaultKeyer()
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}

	switch cfg.Backend {
	case config.CacheFile:
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, keyer, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(keyer, cfg.Prefix), nil
	}
	return cache.NewNullCache(), keyer, nil
}

// newCatalog opens the configured catalog store.
func (c *CLI) newCatalog(ctx context.Context) (catalog.Store, error) {
	cfg := c.settings().Catalog
	switch cfg.Backend {
	case config.CatalogSQLite:
		s, err := catalog.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CatalogMongo:
		s, err := catalog.OpenMongo(ctx, cfg.DSN, cfg.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CatalogMemory:
		return catalog.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
}

func (c *CLI) newScanner(ld *loader.Loader) *catalog.Scanner {
	return &catalog.Scanner{
		Loader:  ld,
		Exclude: c.settings().Library.Exclude,
		Logger:  c.Logger,
	}
}
