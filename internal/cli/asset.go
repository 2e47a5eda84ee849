package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/resolve"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
)

func (c *CLI) assetCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:       "asset <package> <node> image|audio",
		Short:     "Extract the image or audio of a node",
		Long:      `Extract the decoded image or audio of a node. The node is given by index or by ID. Without -o the bytes go to stdout.`,
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"image", "audio"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := parseAssetKind(args[2])
			if err != nil {
				return err
			}

			pkg, err := c.loadPackage(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := findNode(pkg.Graph(), args[1])
			if err != nil {
				return err
			}

			ch, keyer, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer ch.Close()

			src := resolve.NewCaching(
				resolve.New(pkg, storage.Dir(pkg.Path()), resolve.WithLogger(c.Logger)),
				ch, c.settings().Cache.TTL.Duration,
				resolve.WithKeyer(keyer),
				resolve.WithCacheLogger(c.Logger),
			)
			data, err := resolve.Asset(ctx, src, n, kind)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote %s of node %d (%d bytes)", kind, n.Index, len(data))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the asset cache")
	return cmd
}

func parseAssetKind(s string) (story.AssetKind, error) {
	switch s {
	case "image":
		return story.AssetImage, nil
	case "audio":
		return story.AssetAudio, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "asset kind must be image or audio, got %q", s)
}

// findNode looks a node up by index, falling back to its ID.
func findNode(g *story.Graph, ref string) (story.Node, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if n, ok := g.Node(i); ok {
			return n, nil
		}
	}
	if n, ok := g.NodeByID(ref); ok {
		return n, nil
	}
	return story.Node{}, errors.New(errors.ErrCodeNotFound, "no node %q", ref)
}
