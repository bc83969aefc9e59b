package validate

import (
	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate <recipe-file>",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, problems, err := recipe.Lint(args[0])
			if err != nil {
				return err
			}
			if len(problems) == 0 {
				ui.Success(MsgValid, rec.Name)
				return nil
			}
			for _, p := range problems {
				ui.Warning("%v", p)
			}
			return errors.Newf(errors.ErrRepoFormat,
				"recipe %s has %d problem(s)", args[0], len(problems))
		},
	}

	return cmd
}
