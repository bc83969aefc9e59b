package list

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/installdb"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the list command
func NewCommand() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New()
			if err != nil {
				return err
			}
			db, err := installdb.Load(p.InstalledDBPath())
			if err != nil {
				return err
			}

			names := db.Names()
			if len(names) == 0 {
				ui.Plain(MsgNoPackages)
				return nil
			}
			sort.Strings(names)

			for _, name := range names {
				pkg, _ := db.Get(name)
				if long {
					ui.Plain("%s %s (%s, from %s, installed %s)",
						pkg.Name, pkg.Version, pkg.InstallMode, pkg.RegistrySource,
						pkg.InstalledAt.Format("2006-01-02"))
				} else {
					ui.Plain("%s %s", pkg.Name, pkg.Version)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show install mode, source, and date")

	return cmd
}
