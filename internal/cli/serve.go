package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/internal/api"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		noScan bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over a read-only HTTP API",
		Long:  `Scan the library into the configured catalog and serve it over HTTP. With --no-scan the catalog is served as stored, which lets several servers share one catalog database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.settings()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ld, err := c.newLoader()
			if err != nil {
				return err
			}
			store, err := c.newCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if !noScan {
				prog := newProgress(c.Logger)
				entries, err := c.newScanner(ld).Scan(ctx, cfg.Library.Dir)
				if err != nil {
					return err
				}
				if err := store.Put(ctx, entries...); err != nil {
					return err
				}
				prog.done("Scanned library")
			}

			ch, keyer, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer ch.Close()

			srv := api.New(api.Options{
				Catalog:  store,
				Loader:   ld,
				Cache:    ch,
				Keyer:    keyer,
				CacheTTL: cfg.Cache.TTL.Duration,
				Logger:   c.Logger,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noScan, "no-scan", false, "serve the stored catalog without rescanning")
	return cmd
}
