package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *CLI) walkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "walk <package>",
		Short: "Play through a story interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return errors.New("walk needs an interactive terminal")
			}
			pkg, err := c.loadPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(NewWalkModel(pkg), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
