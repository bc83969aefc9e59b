package update

import (
	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/errors"
	installer "github.com/oradev/ora/pkg/install"
	"github.com/oradev/ora/pkg/paths"
)

// NewCommand creates the update command
func NewCommand() *cobra.Command {
	var (
		all           bool
		allowInsecure bool
	)

	cmd := &cobra.Command{
		Use:     "update [name]",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New(errors.ErrInvalidInput,
					"update needs a package name or --all, not both")
			}

			p, err := paths.New()
			if err != nil {
				return err
			}
			inst, err := installer.New(p)
			if err != nil {
				return err
			}

			opts := installer.Options{AllowInsecure: allowInsecure}
			if all {
				return inst.UpdateAll(cmd.Context(), opts)
			}
			return inst.Update(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Update every installed package")
	cmd.Flags().BoolVar(&allowInsecure, "allow-insecure", false, "Allow updating packages that disable verification")

	return cmd
}
