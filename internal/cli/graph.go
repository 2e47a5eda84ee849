package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/render/nodelink"
)

const (
	graphDOT = "dot"
	graphSVG = "svg"
	graphPDF = "pdf"
	graphPNG = "png"
)

func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "graph <package>",
		Short: "Draw a package's story graph",
		Long:  `Draw a package's story graph as Graphviz DOT, SVG, PDF or PNG. PDF and PNG need rsvg-convert from librsvg.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pkg, err := c.loadPackage(ctx, args[0])
			if err != nil {
				return err
			}
			dot := nodelink.ToDOT(pkg, nodelink.Options{Detailed: detailed})

			var data []byte
			switch format {
			case graphDOT:
				data = []byte(dot)
			case graphSVG:
				data, err = nodelink.RenderSVG(ctx, dot)
			case graphPDF:
				data, err = nodelink.RenderPDF(ctx, dot)
			case graphPNG:
				data, err = nodelink.RenderPNG(ctx, dot, scale)
			default:
				return fmt.Errorf("unknown graph format %q (want dot, svg, pdf or png)", format)
			}
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
			printSuccess("Drew %s (%d nodes)", pkg.ID(), pkg.Graph().Len())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", graphDOT, "format: dot, svg, pdf or png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show controls and media in stage labels")
	cmd.Flags().Float64Var(&scale, "scale", 2.0, "PNG scale factor")
	return cmd
}
