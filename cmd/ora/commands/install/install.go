package install

import (
	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/errors"
	installer "github.com/oradev/ora/pkg/install"
	"github.com/oradev/ora/pkg/paths"
)

// NewCommand creates the install command
func NewCommand() *cobra.Command {
	var (
		version       string
		repoFile      string
		userland      bool
		system        bool
		allowInsecure bool
		localArchive  string
		metadataFile  string
	)

	cmd := &cobra.Command{
		Use:     "install [name[@registry]]",
		Short:   MsgShort,
		Long:    MsgLong,
		Example: MsgExample,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && localArchive == "" {
				return errors.New(errors.ErrInvalidInput,
					"install needs a package name or --local ARCHIVE")
			}

			p, err := paths.New()
			if err != nil {
				return err
			}
			inst, err := installer.New(p)
			if err != nil {
				return err
			}

			opts := installer.Options{
				Version:       version,
				AllowInsecure: allowInsecure,
				RepoFile:      repoFile,
				LocalArchive:  localArchive,
				MetadataFile:  metadataFile,
			}
			if userland {
				opts.Mode = paths.ModeUserland
			}
			if system {
				opts.Mode = paths.ModeSystem
			}

			spec := ""
			if len(args) > 0 {
				spec = args[0]
			}
			return inst.Install(cmd.Context(), spec, opts)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Install an exact version instead of the latest stable release")
	cmd.Flags().StringVar(&repoFile, "repo", "", "Install from a local recipe file")
	cmd.Flags().BoolVar(&userland, "userland", false, "Install under the user's data and bin directories")
	cmd.Flags().BoolVar(&system, "system", false, "Install under /opt/ora and /usr/local/bin")
	cmd.Flags().BoolVar(&allowInsecure, "allow-insecure", false, "Allow installing a package that disables verification")
	cmd.Flags().StringVar(&localArchive, "local", "", "Install a local archive instead of downloading")
	cmd.Flags().StringVar(&metadataFile, "metadata", "", "Metadata TOML for --local installs")

	cmd.MarkFlagsMutuallyExclusive("userland", "system")
	cmd.MarkFlagsMutuallyExclusive("repo", "local")
	cmd.MarkFlagsRequiredTogether("local", "metadata")

	return cmd
}
