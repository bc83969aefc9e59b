package search

import (
	"github.com/spf13/cobra"

	installer "github.com/oradev/ora/pkg/install"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the search command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search <query>",
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

			results := inst.Registries().Search(args[0])
			if len(results) == 0 {
				ui.Plain(MsgNoMatches, args[0])
				return nil
			}
			for _, r := range results {
				if r.Description != "" {
					ui.Plain("%s (%s) - %s", r.Name, r.Registry, r.Description)
				} else {
					ui.Plain("%s (%s)", r.Name, r.Registry)
				}
			}
			return nil
		},
	}

	return cmd
}
