package info

import (
	"github.com/spf13/cobra"

	installer "github.com/oradev/ora/pkg/install"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the info command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "info <name>",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := paths.New()
			if err != nil {
				return err
			}
			inst, err := installer.New(p)
			if err != nil {
				return err
			}

			rec, registryName, lookupErr := inst.Registries().Lookup(cmd.Context(), name)
			pkg, installed := inst.DB().Get(name)

			if lookupErr != nil && !installed {
				return lookupErr
			}

			if rec != nil {
				ui.Plain("Name:        %s", rec.Name)
				if rec.Description != "" {
					ui.Plain("Description: %s", rec.Description)
				}
				if rec.Homepage != "" {
					ui.Plain("Homepage:    %s", rec.Homepage)
				}
				ui.Plain("Provider:    %s", rec.Source.ProviderType)
				ui.Plain("Registry:    %s", registryName)
				if rec.Security.AllowInsecure {
					ui.Warning("This recipe disables integrity verification")
				}
			}

			if installed {
				ui.Plain("Installed:   %s (%s)", pkg.Version, pkg.InstallMode)
				ui.Plain("Location:    %s", pkg.InstallDir)
				ui.Plain("Source:      %s", pkg.RegistrySource)
			} else {
				ui.Plain("Installed:   no")
			}
			return nil
		},
	}

	return cmd
}
