package uninstall

import (
	"github.com/spf13/cobra"

	installer "github.com/oradev/ora/pkg/install"
	"github.com/oradev/ora/pkg/paths"
)

// NewCommand creates the uninstall command
func NewCommand() *cobra.Command {
	var (
		version string
		purge   bool
	)

	cmd := &cobra.Command{
		Use:     "uninstall <name>",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New()
			if err != nil {
				return err
			}
			inst, err := installer.New(p)
			if err != nil {
				return err
			}
			return inst.Uninstall(args[0], version, purge)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Fail unless this exact version is installed")
	cmd.Flags().BoolVar(&purge, "purge", false, "Also remove leftover versions under the package directory")

	return cmd
}
