package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/cache"
	"github.com/matzehuels/storybox/pkg/config"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the asset cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached assets and snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings().Cache
			switch cfg.Backend {
			case config.CacheNone:
				printInfo("Caching is disabled")
				return nil
			case config.CacheRedis:
				printInfo("Redis entries expire after %s; nothing to clear locally", cfg.TTL.Duration)
				return nil
			}

			fc, err := cache.NewFileCache(cfg.Dir)
			if err != nil {
				return err
			}
			defer fc.Close()
			n, err := fc.Clear(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.settings().Cache.Dir)
			return nil
		},
	}
}
