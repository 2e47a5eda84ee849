package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/catalog"
	"github.com/matzehuels/storybox/pkg/story"
	"github.com/matzehuels/storybox/pkg/storyio"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// loadPackage loads one package and logs its warnings.
func (c *CLI) loadPackage(ctx context.Context, path string) (*story.Package, error) {
	ld, err := c.newLoader()
	if err != nil {
		return nil, err
	}
	prog := newProgress(c.Logger)
	pkg, err := ld.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debugf("loaded %s from %s", pkg.ID(), pkg.Format())
	if c.verbose {
		prog.done("Loaded " + pkg.ID())
	}
	logFindings(c.Logger, pkg)
	return pkg, nil
}

func (c *CLI) inspectCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <package>",
		Short: "Show a story package's metadata, or export it as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := c.loadPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			switch output {
			case outputJSON, outputYAML:
				return storyio.Write(pkg, output, cmd.OutOrStdout())
			case outputText:
				printSummary(pkg)
				return nil
			}
			return fmt.Errorf("unknown output %q (want text, json or yaml)", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output: text, json or yaml")
	return cmd
}

func printSummary(pkg *story.Package) {
	info := pkg.Info()
	entry := catalog.EntryFor(pkg)

	title := info.Title
	if title == "" {
		title = pkg.ID()
	}
	fmt.Println(StyleTitle.Render(title))
	if info.Description != "" {
		printDetail("%s", info.Description)
	}
	fmt.Println()
	printKeyValue("ID", pkg.ID())
	printKeyValue("Format", string(pkg.Format()))
	printKeyValue("Path", pkg.Path())
	printKeyValue("Story version", strconv.Itoa(info.StoryVersion))
	printKeyValue("Night mode", strconv.FormatBool(info.NightMode))

	root := pkg.Root()
	rootName := root.Name
	if rootName == "" {
		rootName = root.ID
	}
	printKeyValue("Root", fmt.Sprintf("%d (%s)", root.Index, rootName))

	report := pkg.Report()
	printKeyValue("Reachable", fmt.Sprintf("%d of %d", report.Reachable, pkg.Graph().Len()))
	printStats(entry.Nodes, entry.Assets, entry.Warnings)

	for _, f := range report.Warnings {
		printWarning("%s", f)
	}
}
