// Package ora assembles the command tree. Each subcommand lives in its
// own package under commands/; this file only wires them together.
package ora

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oradev/ora/cmd/ora/commands/configcmd"
	"github.com/oradev/ora/cmd/ora/commands/info"
	"github.com/oradev/ora/cmd/ora/commands/install"
	"github.com/oradev/ora/cmd/ora/commands/list"
	"github.com/oradev/ora/cmd/ora/commands/registry"
	"github.com/oradev/ora/cmd/ora/commands/search"
	"github.com/oradev/ora/cmd/ora/commands/security"
	"github.com/oradev/ora/cmd/ora/commands/uninstall"
	"github.com/oradev/ora/cmd/ora/commands/update"
	"github.com/oradev/ora/cmd/ora/commands/validate"
	"github.com/oradev/ora/internal/version"
	"github.com/oradev/ora/pkg/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		debug     bool
	)

	rootCmd := &cobra.Command{
		Use:     "ora",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug && verbosity < 2 {
				verbosity = 2
			}
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, MsgFlagDebug)

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	// Add all commands
	rootCmd.AddCommand(install.NewCommand())
	rootCmd.AddCommand(uninstall.NewCommand())
	rootCmd.AddCommand(update.NewCommand())
	rootCmd.AddCommand(list.NewCommand())
	rootCmd.AddCommand(search.NewCommand())
	rootCmd.AddCommand(info.NewCommand())
	rootCmd.AddCommand(validate.NewCommand())
	rootCmd.AddCommand(registry.NewCommand())
	rootCmd.AddCommand(security.NewCommand())
	rootCmd.AddCommand(configcmd.NewCommand())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ora version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
