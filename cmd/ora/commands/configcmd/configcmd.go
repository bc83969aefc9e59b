package configcmd

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/ui"
)

// NewCommand creates the config command and its subcommands
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgShort,
		Long:    MsgLong,
		GroupID: "core",
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
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
			cfg, err := config.LoadGlobalConfig(p.GlobalConfigPath())
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return errors.Wrap(err, errors.ErrInternal, "failed to serialize config")
			}
			ui.Plain("%s", string(data))
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
			p, err := paths.New()
			if err != nil {
				return err
			}
			cfg, err := config.LoadGlobalConfig(p.GlobalConfigPath())
			if err != nil {
				return err
			}
			problems := cfg.Validate()
			if len(problems) == 0 {
				ui.Success(MsgValid)
				return nil
			}
			for _, prob := range problems {
				ui.Warning("%v", prob)
			}
			return errors.Newf(errors.ErrConfigValid, "config has %d problem(s)", len(problems))
		},
	}
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
			path := p.GlobalConfigPath()
			if _, err := os.Stat(path); err == nil {
				return errors.Newf(errors.ErrInvalidInput, "config already exists at %s", path)
			}
			if err := config.SaveGlobalConfig(path, config.DefaultGlobalConfig()); err != nil {
				return err
			}
			ui.Success(MsgInitialized, path)
			return nil
		},
	}
}
