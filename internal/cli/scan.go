package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/catalog"
	"github.com/matzehuels/storybox/pkg/config"
)

func (c *CLI) scanCommand() *cobra.Command {
	var store bool

	cmd := &cobra.Command{
		Use:   "scan [library]",
		Short: "Load every package in a library directory",
		Long:  `Load every package below a library directory and list them. Packages marked factory-disabled and excluded directories are skipped; packages that fail to load are listed with their error. With --store the result replaces the configured catalog's entries.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := c.settings().Library.Dir
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				dir = expanded
			}

			ld, err := c.newLoader()
			if err != nil {
				return err
			}

			sc := c.newScanner(ld)
			var spin *Spinner
			if isTerminal() {
				spin = newSpinner(ctx, os.Stderr, "Scanning "+dir)
				sc.Progress = func(done, total int) {
					spin.SetMessage(fmt.Sprintf("Scanning %s (%d/%d)", dir, done, total))
				}
				spin.Start()
			}
			prog := newProgress(c.Logger)
			entries, err := sc.Scan(ctx, dir)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}
			if c.verbose {
				prog.done(fmt.Sprintf("Scanned %d packages", len(entries)))
			}

			fmt.Println(renderCatalog(entries))

			if store {
				st, err := c.newCatalog(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Put(ctx, entries...); err != nil {
					return err
				}
				printSuccess("Stored %d entries in the %s catalog", len(entries), c.settings().Catalog.Backend)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&store, "store", false, "write the result to the configured catalog")
	return cmd
}

// renderCatalog lays entries out as a table.
func renderCatalog(entries []catalog.Entry) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if !e.OK() {
			rows = append(rows, []string{iconError, e.ID, "—", "—", "—", e.Error})
			continue
		}
		title := e.Title
		if title == "" {
			title = "—"
		}
		rows = append(rows, []string{iconSuccess, e.ID, e.Format, strconv.Itoa(e.Nodes), strconv.Itoa(e.Assets), title})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Format", "Nodes", "Assets", "Title").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(entries) {
				return lipgloss.NewStyle()
			}
			e := entries[row]
			switch {
			case !e.OK():
				return StyleError
			case col == 0:
				return StyleSuccess
			case e.Warnings > 0 && col == 1:
				return StyleWarning
			}
			return StyleValue
		})
	return t.Render()
}
