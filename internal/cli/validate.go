package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/loader"
)

func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <package>...",
		Short: "Check that story packages load and their graphs are sound",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ld, err := c.newLoader()
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				pkg, err := ld.Load(cmd.Context(), path)
				if err != nil {
					failed++
					printError("%s", path)
					printDetail("%s", describeLoadError(err))
					continue
				}
				warnings := pkg.Warnings()
				if strict && len(warnings) > 0 {
					failed++
					printError("%s: %d warnings", path, len(warnings))
				} else {
					printSuccess("%s %s", pkg.ID(), StyleDim.Render("("+string(pkg.Format())+")"))
				}
				for _, f := range warnings {
					printDetail("%s", f)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d packages failed validation", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	return cmd
}

// describeLoadError names the failing stage and the error code.
func describeLoadError(err error) string {
	msg := errors.UserMessage(err)
	if code := errors.GetCode(err); code != "" {
		msg = string(code) + ": " + msg
	}
	var le *loader.LoadError
	if stderrors.As(err, &le) {
		return fmt.Sprintf("%s stage: %s", le.Stage, msg)
	}
	return msg
}
