package security

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/audit"
	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the security command and its subcommands
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "security",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newResetCmd())

	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: MsgInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New()
			if err != nil {
				return err
			}
			path := p.SecurityConfigPath()
			if _, err := os.Stat(path); err == nil {
				return errors.Newf(errors.ErrInvalidInput,
					"security config already exists at %s, use reset to overwrite it", path)
			}
			if err := config.SaveSecurityConfig(path, config.DefaultSecurityConfig()); err != nil {
				return err
			}
			logSecurityEvent(p, "init")
			ui.Success(MsgInitialized, path)
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: MsgShowShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New()
			if err != nil {
				return err
			}
			cfg, err := config.LoadSecurityConfig(p.SecurityConfigPath())
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return errors.Wrap(err, errors.ErrInternal, "failed to serialize security config")
			}
			ui.Plain("%s", string(data))
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: MsgResetShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paths.New()
			if err != nil {
				return err
			}
			path := p.SecurityConfigPath()
			if err := config.SaveSecurityConfig(path, config.DefaultSecurityConfig()); err != nil {
				return err
			}
			logSecurityEvent(p, "reset")
			ui.Success(MsgReset, path)
			return nil
		},
	}
}

// logSecurityEvent records policy changes in the audit log.
func logSecurityEvent(p paths.Paths, action string) {
	if err := audit.New(p.AuditLogPath()).Append(audit.EventSecurity, map[string]string{
		"action": action,
	}); err != nil {
		ui.Warning("Failed to append audit record: %v", err)
	}
}
