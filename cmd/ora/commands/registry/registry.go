package registry

import (
	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/paths"
	reg "github.com/oradev/ora/pkg/registry"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the registry command and its subcommands
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registry",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
	}

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newUpdatePinCmd())

	return cmd
}

// newManager loads the configuration documents and wires up a registry
// manager over them.
func newManager() (*reg.Manager, error) {
	p, err := paths.New()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadGlobalConfig(p.GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	sec, err := config.LoadSecurityConfig(p.SecurityConfigPath())
	if err != nil {
		return nil, err
	}
	client := httpclient.New(sec.Network)
	return reg.NewManager(&cfg, p.GlobalConfigPath(), p, client, sec.Registries), nil
}

func newAddCmd() *cobra.Command {
	var (
		trust       string
		branch      string
		registryDir string
		disabled    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: MsgAddShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			entry := config.RegistryEntry{
				Name:        args[0],
				URL:         args[1],
				TrustLevel:  trust,
				Enabled:     !disabled,
				Branch:      branch,
				RegistryDir: registryDir,
			}
			if err := m.Add(entry); err != nil {
				return err
			}
			ui.Success(MsgAdded, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&trust, "trust", config.TrustPublic, "Trust level: public or private")
	cmd.Flags().StringVar(&branch, "branch", "", "Git branch to sync instead of the default")
	cmd.Flags().StringVar(&registryDir, "registry-dir", "", "Recipe subdirectory inside the repository")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Add the registry without enabling it")

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			entries := m.List()
			if len(entries) == 0 {
				ui.Plain(MsgNoRegistries)
				return nil
			}
			for _, e := range entries {
				state := "enabled"
				if !e.Enabled {
					state = "disabled"
				}
				ui.Plain("%s %s (%s, %s)", e.Name, e.URL, e.TrustLevel, state)
			}
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: MsgRemoveShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Remove(args[0]); err != nil {
				return err
			}
			ui.Success(MsgRemoved, args[0])
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [name]",
		Short: MsgSyncShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := m.Sync(cmd.Context(), args[0]); err != nil {
					return err
				}
				ui.Success(MsgSynced, args[0])
				return nil
			}
			if err := m.SyncAll(cmd.Context()); err != nil {
				return err
			}
			ui.Success(MsgSyncedAll)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: MsgVerifyShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			for _, r := range m.Verify() {
				status := "not synced"
				if r.Synced {
					status = "synced"
				}
				ui.Plain("%s %s (%s, %s, %d recipes)", r.Name, r.URL, r.TrustLevel, status, r.RecipeCount)
			}
			return nil
		},
	}
}

func newUpdatePinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-pin <name> <fingerprint>",
		Short: MsgUpdatePinShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.UpdatePin(args[0], args[1]); err != nil {
				return err
			}
			ui.Success(MsgPinUpdated, args[0])
			return nil
		},
	}
}
